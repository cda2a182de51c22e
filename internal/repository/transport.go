package repository

import (
	"context"

	"ecomove/internal/domain"
)

// TransportRepository defines the persistence operations for transports.
type TransportRepository interface {
	// Create persists a new transport and fills in its generated ID.
	Create(ctx context.Context, t *domain.TransportDetail) error

	// GetByID retrieves a transport by ID.
	GetByID(ctx context.Context, id int64) (*domain.Transport, error)

	// GetDetailByID retrieves a transport with its subtype fields.
	GetDetailByID(ctx context.Context, id int64) (*domain.TransportDetail, error)

	// GetAll retrieves all transports.
	GetAll(ctx context.Context) ([]*domain.Transport, error)

	// UpdateStatus updates a transport's status.
	UpdateStatus(ctx context.Context, id int64, status domain.TransportStatus) error

	// UpdateStation moves a transport to a station, or detaches it when
	// stationID is nil.
	UpdateStation(ctx context.Context, id int64, stationID *int64) error

	// Claim marks an available transport as in use. Returns ErrConflict if
	// the transport is not currently available, ErrNotFound if it does not
	// exist.
	Claim(ctx context.Context, id int64) error
}
