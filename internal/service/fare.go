package service

import (
	"github.com/shopspring/decimal"

	"ecomove/internal/config"
	"ecomove/internal/domain"
)

// FareCalculator computes fares from elapsed time and the transport's
// hourly rate. It is pure: no clock, no I/O.
type FareCalculator struct {
	cfg config.FareConfig
}

// NewFareCalculator creates a FareCalculator with the given tariff policy.
func NewFareCalculator(cfg config.FareConfig) *FareCalculator {
	return &FareCalculator{cfg: cfg}
}

// Calculate itemizes the charge for a rental. The adjustments apply in a
// fixed order, and the order matters because each percentage is taken of
// the running time charge:
//
//  1. time charge = hourly rate x minutes/60
//  2. short trips (<= ShortTripMaxMinutes) earn a discount; long trips
//     (>= LongTripMinMinutes) fold a surcharge into the time charge itself
//  3. bicycles earn the ecological bonus on the (possibly surcharged) charge
//  4. tax applies to the time charge, before discounts
//  5. total = time charge - discounts + tax, rounded to cents
//
// Both boundaries are inclusive. Minutes strictly between them trigger
// neither adjustment.
func (c *FareCalculator) Calculate(hourlyRate float64, durationMinutes int, transportType domain.TransportType) domain.FareBreakdown {
	rate := decimal.NewFromFloat(hourlyRate)
	minutes := decimal.NewFromInt(int64(durationMinutes))

	raw := rate.Mul(minutes).Div(decimal.NewFromInt(60))
	discount := decimal.Zero

	switch {
	case durationMinutes <= c.cfg.ShortTripMaxMinutes:
		discount = raw.Mul(decimal.NewFromFloat(c.cfg.ShortTripDiscount))
	case durationMinutes >= c.cfg.LongTripMinMinutes:
		raw = raw.Mul(decimal.NewFromFloat(1 + c.cfg.LongTripSurcharge))
	}

	if transportType == domain.TransportTypeBicycle {
		discount = discount.Add(raw.Mul(decimal.NewFromFloat(c.cfg.EcoDiscount)))
	}

	tax := raw.Mul(decimal.NewFromFloat(c.cfg.TaxRate))
	total := raw.Sub(discount).Add(tax)

	return domain.FareBreakdown{
		BaseRate:        hourlyRate,
		DurationMinutes: durationMinutes,
		Subtotal:        round2(raw),
		Discounts:       round2(discount),
		Taxes:           round2(tax),
		TotalCost:       round2(total),
	}
}

// ExtensionCost prices additional minutes at the plain hourly rate, with
// no discounts, surcharges or tax.
func (c *FareCalculator) ExtensionCost(hourlyRate float64, additionalMinutes int) float64 {
	rate := decimal.NewFromFloat(hourlyRate)
	minutes := decimal.NewFromInt(int64(additionalMinutes))

	return round2(rate.Mul(minutes).Div(decimal.NewFromInt(60)))
}

// round2 rounds to cents, half away from zero.
func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
