package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ecomove/internal/domain"
	"ecomove/internal/repository"
)

// StationRepository is a PostgreSQL implementation of repository.StationRepository.
type StationRepository struct {
	q Querier
}

// NewStationRepository creates a new PostgreSQL station repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{q: db}
}

// Create persists a new station.
func (r *StationRepository) Create(ctx context.Context, station *domain.Station) error {
	query := `
		INSERT INTO stations (name, address, lat, lng, max_capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.q.QueryRowContext(ctx, query,
		station.Name,
		station.Address,
		station.Lat,
		station.Lng,
		station.MaxCapacity,
		station.CreatedAt,
	).Scan(&station.ID)
}

// GetByID retrieves a station by ID.
func (r *StationRepository) GetByID(ctx context.Context, id int64) (*domain.Station, error) {
	query := `
		SELECT id, name, address, lat, lng, max_capacity, created_at
		FROM stations WHERE id = $1
	`

	var station domain.Station
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&station.ID,
		&station.Name,
		&station.Address,
		&station.Lat,
		&station.Lng,
		&station.MaxCapacity,
		&station.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &station, nil
}

// GetAll retrieves all stations.
func (r *StationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	query := `
		SELECT id, name, address, lat, lng, max_capacity, created_at
		FROM stations ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*domain.Station
	for rows.Next() {
		var station domain.Station
		if err := rows.Scan(
			&station.ID,
			&station.Name,
			&station.Address,
			&station.Lat,
			&station.Lng,
			&station.MaxCapacity,
			&station.CreatedAt,
		); err != nil {
			return nil, err
		}
		stations = append(stations, &station)
	}

	return stations, rows.Err()
}

// Ensure StationRepository implements repository.StationRepository.
var _ repository.StationRepository = (*StationRepository)(nil)
