package domain

import "time"

// LoanStatus represents the current status of a loan.
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
	LoanStatusCancelled LoanStatus = "cancelled"
	LoanStatusExtended  LoanStatus = "extended"
)

// IsOpen reports whether the status counts as a live rental. A user may
// hold at most one loan in an open status at any time.
func (s LoanStatus) IsOpen() bool {
	return s == LoanStatusActive || s == LoanStatusExtended
}

// PaymentMethod represents how a completed loan is paid.
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCreditCard    PaymentMethod = "credit_card"
	PaymentMethodPSE           PaymentMethod = "pse"
	PaymentMethodDigitalWallet PaymentMethod = "digital_wallet"
)

// Loan represents a single rental session linking a user, a transport and
// one or two stations.
type Loan struct {
	ID                   int64
	UserID               int64
	TransportID          int64
	OriginStationID      int64
	DestinationStationID *int64
	StartedAt            time.Time
	EndedAt              time.Time // zero until completed or cancelled
	EstimatedMinutes     *int      // advisory only
	TotalCost            *float64  // nil until first computed
	Status               LoanStatus
	PaymentMethod        PaymentMethod // empty until completion
	CancelReason         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
