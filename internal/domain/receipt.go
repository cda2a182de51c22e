package domain

import "time"

// Receipt represents a rental receipt issued when a loan completes.
type Receipt struct {
	ID                   string
	LoanID               int64
	UserID               int64
	TransportID          int64
	TransportType        TransportType
	OriginStationID      int64
	DestinationStationID int64
	Fare                 FareBreakdown
	PaymentMethod        PaymentMethod
	PaymentStatus        PaymentStatus
	StartedAt            time.Time
	EndedAt              time.Time
	CreatedAt            time.Time
}
