package repository

import (
	"context"
	"time"

	"ecomove/internal/domain"
)

// LoanRepository defines the persistence operations for loans.
type LoanRepository interface {
	// Create persists a new loan and fills in its generated ID.
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by ID.
	GetByID(ctx context.Context, id int64) (*domain.Loan, error)

	// GetAll retrieves recent loans, newest first.
	GetAll(ctx context.Context) ([]*domain.Loan, error)

	// Update updates an existing loan, guarded on its stored status: the
	// write applies only while the row is still in from status. Returns
	// ErrConflict if the status moved on, ErrNotFound if the loan does
	// not exist.
	Update(ctx context.Context, loan *domain.Loan, from domain.LoanStatus) error

	// GetOpenByUserID retrieves the user's loan in active or extended
	// status. Returns nil if the user has no open loan.
	GetOpenByUserID(ctx context.Context, userID int64) (*domain.Loan, error)

	// GetByUserID retrieves a page of the user's loans, newest first.
	GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]*domain.Loan, error)

	// GetUserStats aggregates the user's loan history.
	GetUserStats(ctx context.Context, userID int64) (*domain.UserLoanStats, error)

	// CountByDay groups loans started within [from, to) by day.
	CountByDay(ctx context.Context, from, to time.Time) ([]domain.DailyLoanCount, error)

	// TopTransports returns the most-rented transports within [from, to).
	TopTransports(ctx context.Context, from, to time.Time, limit int) ([]domain.TransportUsage, error)

	// TopStations returns the most-active stations within [from, to).
	TopStations(ctx context.Context, from, to time.Time, limit int) ([]domain.StationActivity, error)

	// PeriodTotals returns the loan count and summed cost within [from, to).
	PeriodTotals(ctx context.Context, from, to time.Time) (count int, revenue float64, err error)
}
