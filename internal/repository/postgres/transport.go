package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ecomove/internal/domain"
	"ecomove/internal/repository"
)

// TransportRepository is a PostgreSQL implementation of repository.TransportRepository.
// Subtype fields live in nullable columns and are folded into the variant
// structs on read.
type TransportRepository struct {
	q Querier
}

// NewTransportRepository creates a new PostgreSQL transport repository.
func NewTransportRepository(db *sql.DB) *TransportRepository {
	return &TransportRepository{q: db}
}

// NewTransportRepositoryWithTx creates a transport repository using a transaction.
func NewTransportRepositoryWithTx(tx *sql.Tx) *TransportRepository {
	return &TransportRepository{q: tx}
}

// Create persists a new transport with its subtype fields.
func (r *TransportRepository) Create(ctx context.Context, t *domain.TransportDetail) error {
	query := `
		INSERT INTO transports (code, type, hourly_rate, status, station_id,
			battery_percent, range_km, gears, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var stationID sql.NullInt64
	if t.StationID != nil {
		stationID = sql.NullInt64{Int64: *t.StationID, Valid: true}
	}

	var battery, rangeKm sql.NullFloat64
	if t.Electric != nil {
		battery = sql.NullFloat64{Float64: t.Electric.BatteryPercent, Valid: true}
		rangeKm = sql.NullFloat64{Float64: t.Electric.RangeKm, Valid: true}
	}

	var gears sql.NullInt64
	if t.Bicycle != nil {
		gears = sql.NullInt64{Int64: int64(t.Bicycle.Gears), Valid: true}
	}

	return r.q.QueryRowContext(ctx, query,
		t.Code,
		t.Type,
		t.HourlyRate,
		t.Status,
		stationID,
		battery,
		rangeKm,
		gears,
		t.CreatedAt,
	).Scan(&t.ID)
}

const transportColumns = `id, code, type, hourly_rate, status, station_id, created_at`

func scanTransport(row *sql.Row) (*domain.Transport, error) {
	var t domain.Transport
	var stationID sql.NullInt64

	err := row.Scan(
		&t.ID,
		&t.Code,
		&t.Type,
		&t.HourlyRate,
		&t.Status,
		&stationID,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if stationID.Valid {
		t.StationID = &stationID.Int64
	}

	return &t, nil
}

// GetByID retrieves a transport by ID.
func (r *TransportRepository) GetByID(ctx context.Context, id int64) (*domain.Transport, error) {
	query := `SELECT ` + transportColumns + ` FROM transports WHERE id = $1`

	return scanTransport(r.q.QueryRowContext(ctx, query, id))
}

// GetDetailByID retrieves a transport with its subtype fields.
func (r *TransportRepository) GetDetailByID(ctx context.Context, id int64) (*domain.TransportDetail, error) {
	query := `
		SELECT id, code, type, hourly_rate, status, station_id,
			battery_percent, range_km, gears, created_at
		FROM transports WHERE id = $1
	`

	var detail domain.TransportDetail
	var stationID sql.NullInt64
	var battery, rangeKm sql.NullFloat64
	var gears sql.NullInt64

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&detail.ID,
		&detail.Code,
		&detail.Type,
		&detail.HourlyRate,
		&detail.Status,
		&stationID,
		&battery,
		&rangeKm,
		&gears,
		&detail.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if stationID.Valid {
		detail.StationID = &stationID.Int64
	}

	if detail.Type.IsElectric() && battery.Valid {
		detail.Electric = &domain.ElectricSpec{
			BatteryPercent: battery.Float64,
			RangeKm:        rangeKm.Float64,
		}
	}
	if detail.Type == domain.TransportTypeBicycle && gears.Valid {
		detail.Bicycle = &domain.BicycleSpec{Gears: int(gears.Int64)}
	}

	return &detail, nil
}

// GetAll retrieves all transports.
func (r *TransportRepository) GetAll(ctx context.Context) ([]*domain.Transport, error) {
	query := `SELECT ` + transportColumns + ` FROM transports ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transports []*domain.Transport
	for rows.Next() {
		var t domain.Transport
		var stationID sql.NullInt64

		if err := rows.Scan(
			&t.ID,
			&t.Code,
			&t.Type,
			&t.HourlyRate,
			&t.Status,
			&stationID,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}

		if stationID.Valid {
			t.StationID = &stationID.Int64
		}

		transports = append(transports, &t)
	}

	return transports, rows.Err()
}

// UpdateStatus updates a transport's status.
func (r *TransportRepository) UpdateStatus(ctx context.Context, id int64, status domain.TransportStatus) error {
	query := `UPDATE transports SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateStation moves a transport to a station (nil detaches it).
func (r *TransportRepository) UpdateStation(ctx context.Context, id int64, stationID *int64) error {
	query := `UPDATE transports SET station_id = $1 WHERE id = $2`

	var station sql.NullInt64
	if stationID != nil {
		station = sql.NullInt64{Int64: *stationID, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, station, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Claim atomically flips an available transport to in_use. The status
// precondition in the WHERE clause is what keeps two concurrent loan
// starts from both taking the same vehicle.
func (r *TransportRepository) Claim(ctx context.Context, id int64) error {
	// Claiming undocks the vehicle: station_id stays NULL until it is
	// returned somewhere.
	query := `UPDATE transports SET status = $1, station_id = NULL WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query,
		domain.TransportStatusInUse, id, domain.TransportStatusAvailable)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Distinguish a missing transport from a state conflict.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrConflict
	}

	return nil
}

// Ensure TransportRepository implements repository.TransportRepository.
var _ repository.TransportRepository = (*TransportRepository)(nil)
