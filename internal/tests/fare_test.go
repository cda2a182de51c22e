package tests

import (
	"math"
	"testing"

	"ecomove/internal/config"
	"ecomove/internal/domain"
	"ecomove/internal/service"
)

// ──────────────────────────────────────────────
// FARE CALCULATION
// ──────────────────────────────────────────────

func newFareCalculator() *service.FareCalculator {
	return service.NewFareCalculator(config.DefaultFareConfig())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func TestFare_WorkedScenarios(t *testing.T) {
	t.Parallel()

	calc := newFareCalculator()

	cases := []struct {
		name          string
		rate          float64
		minutes       int
		transportType domain.TransportType
		subtotal      float64
		discounts     float64
		taxes         float64
		total         float64
	}{
		{
			// 45 minutes on a bicycle: no length adjustment, eco bonus, tax.
			name:          "bicycle 45 minutes",
			rate:          6000,
			minutes:       45,
			transportType: domain.TransportTypeBicycle,
			subtotal:      4500,
			discounts:     225,
			taxes:         855,
			total:         5130,
		},
		{
			// 20 minutes on a scooter: short-trip discount, tax on the
			// undiscounted charge.
			name:          "scooter 20 minutes",
			rate:          6000,
			minutes:       20,
			transportType: domain.TransportTypeScooter,
			subtotal:      2000,
			discounts:     200,
			taxes:         380,
			total:         2180,
		},
		{
			// 200 minutes on a scooter: surcharge folds into the time
			// charge, so tax applies to the surcharged amount too.
			name:          "scooter 200 minutes",
			rate:          6000,
			minutes:       200,
			transportType: domain.TransportTypeScooter,
			subtotal:      23000,
			discounts:     0,
			taxes:         4370,
			total:         27370,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fare := calc.Calculate(tc.rate, tc.minutes, tc.transportType)

			if !almostEqual(fare.Subtotal, tc.subtotal) {
				t.Errorf("subtotal: expected %.2f, got %.2f", tc.subtotal, fare.Subtotal)
			}
			if !almostEqual(fare.Discounts, tc.discounts) {
				t.Errorf("discounts: expected %.2f, got %.2f", tc.discounts, fare.Discounts)
			}
			if !almostEqual(fare.Taxes, tc.taxes) {
				t.Errorf("taxes: expected %.2f, got %.2f", tc.taxes, fare.Taxes)
			}
			if !almostEqual(fare.TotalCost, tc.total) {
				t.Errorf("total: expected %.2f, got %.2f", tc.total, fare.TotalCost)
			}
			if fare.BaseRate != tc.rate {
				t.Errorf("base rate: expected %.2f, got %.2f", tc.rate, fare.BaseRate)
			}
			if fare.DurationMinutes != tc.minutes {
				t.Errorf("duration: expected %d, got %d", tc.minutes, fare.DurationMinutes)
			}
		})
	}
}

func TestFare_ShortTripBoundary(t *testing.T) {
	t.Parallel()

	calc := newFareCalculator()

	// 30 minutes is still a short trip, 31 is not.
	at := calc.Calculate(6000, 30, domain.TransportTypeScooter)
	if !almostEqual(at.Discounts, 300) {
		t.Errorf("expected discount 300.00 at 30 minutes, got %.2f", at.Discounts)
	}
	if !almostEqual(at.TotalCost, 3270) {
		t.Errorf("expected total 3270.00 at 30 minutes, got %.2f", at.TotalCost)
	}

	past := calc.Calculate(6000, 31, domain.TransportTypeScooter)
	if past.Discounts != 0 {
		t.Errorf("expected no discount at 31 minutes, got %.2f", past.Discounts)
	}
	if !almostEqual(past.TotalCost, 3689) {
		t.Errorf("expected total 3689.00 at 31 minutes, got %.2f", past.TotalCost)
	}
}

func TestFare_LongTripBoundary(t *testing.T) {
	t.Parallel()

	calc := newFareCalculator()

	// 179 minutes has neither adjustment, 180 triggers the surcharge.
	before := calc.Calculate(6000, 179, domain.TransportTypeScooter)
	if !almostEqual(before.Subtotal, 17900) {
		t.Errorf("expected subtotal 17900.00 at 179 minutes, got %.2f", before.Subtotal)
	}
	if !almostEqual(before.TotalCost, 21301) {
		t.Errorf("expected total 21301.00 at 179 minutes, got %.2f", before.TotalCost)
	}

	at := calc.Calculate(6000, 180, domain.TransportTypeScooter)
	if !almostEqual(at.Subtotal, 20700) {
		t.Errorf("expected surcharged subtotal 20700.00 at 180 minutes, got %.2f", at.Subtotal)
	}
	if !almostEqual(at.TotalCost, 24633) {
		t.Errorf("expected total 24633.00 at 180 minutes, got %.2f", at.TotalCost)
	}
}

func TestFare_EcoBonusAppliesToSurchargedCharge(t *testing.T) {
	t.Parallel()

	calc := newFareCalculator()

	// On a long bicycle trip the 5% bonus is taken of the surcharged time
	// charge, not of the pre-surcharge one.
	bike := calc.Calculate(6000, 200, domain.TransportTypeBicycle)
	if !almostEqual(bike.Discounts, 1150) {
		t.Errorf("expected eco bonus 1150.00 on surcharged charge, got %.2f", bike.Discounts)
	}
	if !almostEqual(bike.TotalCost, 26220) {
		t.Errorf("expected total 26220.00, got %.2f", bike.TotalCost)
	}

	// A short bicycle trip stacks both discounts.
	short := calc.Calculate(6000, 20, domain.TransportTypeBicycle)
	if !almostEqual(short.Discounts, 300) {
		t.Errorf("expected stacked discounts 300.00, got %.2f", short.Discounts)
	}
}

func TestFare_ZeroMinutes(t *testing.T) {
	t.Parallel()

	calc := newFareCalculator()

	fare := calc.Calculate(6000, 0, domain.TransportTypeScooter)
	if fare.TotalCost != 0 {
		t.Errorf("expected zero total for zero minutes, got %.2f", fare.TotalCost)
	}
	if fare.Discounts != 0 || fare.Taxes != 0 {
		t.Errorf("expected zero adjustments for zero minutes, got discounts %.2f taxes %.2f",
			fare.Discounts, fare.Taxes)
	}
}

func TestFare_ExtensionCostIsFlat(t *testing.T) {
	t.Parallel()

	calc := newFareCalculator()

	// Extensions are priced at the plain hourly rate: no discount, no
	// surcharge, no tax, even for a long extension.
	if cost := calc.ExtensionCost(6000, 30); !almostEqual(cost, 3000) {
		t.Errorf("expected 3000.00 for a 30 minute extension, got %.2f", cost)
	}
	if cost := calc.ExtensionCost(6000, 200); !almostEqual(cost, 20000) {
		t.Errorf("expected 20000.00 for a 200 minute extension, got %.2f", cost)
	}
}

func TestFare_MonotonicInDuration(t *testing.T) {
	t.Parallel()

	calc := newFareCalculator()

	prev := -1.0
	for minutes := 1; minutes <= 240; minutes++ {
		fare := calc.Calculate(6000, minutes, domain.TransportTypeScooter)
		if fare.TotalCost < prev {
			t.Fatalf("total decreased at %d minutes: %.2f -> %.2f", minutes, prev, fare.TotalCost)
		}
		prev = fare.TotalCost
	}
}
