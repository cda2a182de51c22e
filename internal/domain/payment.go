package domain

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment represents a charge recorded for a completed loan.
type Payment struct {
	ID             string
	LoanID         int64
	Amount         float64
	Method         PaymentMethod
	Status         PaymentStatus
	IdempotencyKey string
}
