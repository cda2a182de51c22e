package repository

import (
	"context"

	"ecomove/internal/domain"
)

// StationRepository defines the persistence operations for stations.
type StationRepository interface {
	// Create persists a new station and fills in its generated ID.
	Create(ctx context.Context, station *domain.Station) error

	// GetByID retrieves a station by ID.
	GetByID(ctx context.Context, id int64) (*domain.Station, error)

	// GetAll retrieves all stations.
	GetAll(ctx context.Context) ([]*domain.Station, error)
}
