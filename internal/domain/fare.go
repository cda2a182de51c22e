package domain

// FareBreakdown is the itemized result of a fare calculation. All money
// fields are rounded to cents.
type FareBreakdown struct {
	BaseRate        float64 // hourly rate the calculation started from
	DurationMinutes int
	Subtotal        float64 // time charge after any long-trip surcharge
	Discounts       float64 // short-trip discount plus ecological bonus
	Taxes           float64
	TotalCost       float64
}
