package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecomove/internal/domain"
	"ecomove/internal/repository"
)

// LoanRepository is a PostgreSQL implementation of repository.LoanRepository.
type LoanRepository struct {
	q Querier
}

// NewLoanRepository creates a new PostgreSQL loan repository.
func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{q: db}
}

// NewLoanRepositoryWithTx creates a loan repository using a transaction.
func NewLoanRepositoryWithTx(tx *sql.Tx) *LoanRepository {
	return &LoanRepository{q: tx}
}

const loanColumns = `id, user_id, transport_id, origin_station_id, destination_station_id,
		started_at, ended_at, estimated_minutes, total_cost, status, payment_method,
		cancel_reason, created_at, updated_at`

// Create persists a new loan.
func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (user_id, transport_id, origin_station_id, destination_station_id,
			started_at, ended_at, estimated_minutes, total_cost, status, payment_method,
			cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	return r.q.QueryRowContext(ctx, query,
		loan.UserID,
		loan.TransportID,
		loan.OriginStationID,
		nullInt64(loan.DestinationStationID),
		loan.StartedAt,
		nullTime(loan.EndedAt),
		nullIntPtr(loan.EstimatedMinutes),
		nullFloat64(loan.TotalCost),
		loan.Status,
		nullString(string(loan.PaymentMethod)),
		nullString(loan.CancelReason),
		loan.CreatedAt,
		loan.UpdatedAt,
	).Scan(&loan.ID)
}

func scanLoan(scan func(dest ...any) error) (*domain.Loan, error) {
	var loan domain.Loan
	var destinationID sql.NullInt64
	var endedAt sql.NullTime
	var estimatedMinutes sql.NullInt64
	var totalCost sql.NullFloat64
	var paymentMethod, cancelReason sql.NullString

	err := scan(
		&loan.ID,
		&loan.UserID,
		&loan.TransportID,
		&loan.OriginStationID,
		&destinationID,
		&loan.StartedAt,
		&endedAt,
		&estimatedMinutes,
		&totalCost,
		&loan.Status,
		&paymentMethod,
		&cancelReason,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if destinationID.Valid {
		loan.DestinationStationID = &destinationID.Int64
	}
	if endedAt.Valid {
		loan.EndedAt = endedAt.Time
	}
	if estimatedMinutes.Valid {
		minutes := int(estimatedMinutes.Int64)
		loan.EstimatedMinutes = &minutes
	}
	if totalCost.Valid {
		cost := totalCost.Float64
		loan.TotalCost = &cost
	}
	if paymentMethod.Valid {
		loan.PaymentMethod = domain.PaymentMethod(paymentMethod.String)
	}
	if cancelReason.Valid {
		loan.CancelReason = cancelReason.String
	}

	return &loan, nil
}

// GetByID retrieves a loan by ID.
func (r *LoanRepository) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	loan, err := scanLoan(r.q.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return loan, nil
}

// GetAll retrieves recent loans, newest first.
func (r *LoanRepository) GetAll(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY started_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLoans(rows)
}

// Update updates an existing loan. The status precondition makes the
// lifecycle write race-safe: two transitions off the same status cannot
// both land, whichever commits second matches zero rows.
func (r *LoanRepository) Update(ctx context.Context, loan *domain.Loan, from domain.LoanStatus) error {
	query := `
		UPDATE loans
		SET destination_station_id = $1, ended_at = $2, total_cost = $3, status = $4,
			payment_method = $5, cancel_reason = $6, updated_at = $7
		WHERE id = $8 AND status = $9
	`

	result, err := r.q.ExecContext(ctx, query,
		nullInt64(loan.DestinationStationID),
		nullTime(loan.EndedAt),
		nullFloat64(loan.TotalCost),
		loan.Status,
		nullString(string(loan.PaymentMethod)),
		nullString(loan.CancelReason),
		loan.UpdatedAt,
		loan.ID,
		from,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Distinguish a missing loan from a lost status race.
		if _, err := r.GetByID(ctx, loan.ID); err != nil {
			return err
		}
		return repository.ErrConflict
	}

	return nil
}

// GetOpenByUserID retrieves the user's loan in active or extended status.
// Returns nil if the user has no open loan.
func (r *LoanRepository) GetOpenByUserID(ctx context.Context, userID int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1 AND status IN ($2, $3)
		LIMIT 1`

	loan, err := scanLoan(r.q.QueryRowContext(ctx, query,
		userID, domain.LoanStatusActive, domain.LoanStatusExtended).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return loan, nil
}

// GetByUserID retrieves a page of the user's loans, newest first.
func (r *LoanRepository) GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.q.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLoans(rows)
}

// GetUserStats aggregates the user's loan history.
func (r *LoanRepository) GetUserStats(ctx context.Context, userID int64) (*domain.UserLoanStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COALESCE(SUM(total_cost), 0)
		FROM loans WHERE user_id = $1
	`

	var stats domain.UserLoanStats
	err := r.q.QueryRowContext(ctx, query,
		userID, domain.LoanStatusCompleted, domain.LoanStatusCancelled).Scan(
		&stats.TotalLoans,
		&stats.CompletedLoans,
		&stats.CancelledLoans,
		&stats.TotalSpent,
	)
	if err != nil {
		return nil, err
	}

	// Favorite type is the most-rented transport type, ties broken by count order.
	favQuery := `
		SELECT t.type
		FROM loans l
		JOIN transports t ON t.id = l.transport_id
		WHERE l.user_id = $1
		GROUP BY t.type
		ORDER BY COUNT(*) DESC
		LIMIT 1
	`

	var favorite string
	err = r.q.QueryRowContext(ctx, favQuery, userID).Scan(&favorite)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	stats.FavoriteTransport = domain.TransportType(favorite)

	return &stats, nil
}

// CountByDay groups loans started within [from, to) by day.
func (r *LoanRepository) CountByDay(ctx context.Context, from, to time.Time) ([]domain.DailyLoanCount, error) {
	query := `
		SELECT date_trunc('day', started_at) AS day, COUNT(*)
		FROM loans
		WHERE started_at >= $1 AND started_at < $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.q.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.DailyLoanCount
	for rows.Next() {
		var c domain.DailyLoanCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// TopTransports returns the most-rented transports within [from, to).
func (r *LoanRepository) TopTransports(ctx context.Context, from, to time.Time, limit int) ([]domain.TransportUsage, error) {
	query := `
		SELECT t.id, t.code, t.type, COUNT(*) AS loan_count
		FROM loans l
		JOIN transports t ON t.id = l.transport_id
		WHERE l.started_at >= $1 AND l.started_at < $2
		GROUP BY t.id, t.code, t.type
		ORDER BY loan_count DESC, t.id
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []domain.TransportUsage
	for rows.Next() {
		var u domain.TransportUsage
		if err := rows.Scan(&u.TransportID, &u.Code, &u.Type, &u.LoanCount); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}

	return usage, rows.Err()
}

// TopStations returns the most-active stations within [from, to), ranked
// by departures plus arrivals.
func (r *LoanRepository) TopStations(ctx context.Context, from, to time.Time, limit int) ([]domain.StationActivity, error) {
	query := `
		SELECT s.id, s.name,
			COUNT(*) FILTER (WHERE l.origin_station_id = s.id) AS departures,
			COUNT(*) FILTER (WHERE l.destination_station_id = s.id) AS arrivals
		FROM stations s
		JOIN loans l ON l.origin_station_id = s.id OR l.destination_station_id = s.id
		WHERE l.started_at >= $1 AND l.started_at < $2
		GROUP BY s.id, s.name
		ORDER BY departures + arrivals DESC, s.id
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activity []domain.StationActivity
	for rows.Next() {
		var a domain.StationActivity
		if err := rows.Scan(&a.StationID, &a.Name, &a.Departures, &a.Arrivals); err != nil {
			return nil, err
		}
		activity = append(activity, a)
	}

	return activity, rows.Err()
}

// PeriodTotals returns the loan count and summed cost within [from, to).
func (r *LoanRepository) PeriodTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total_cost), 0)
		FROM loans
		WHERE started_at >= $1 AND started_at < $2
	`

	var count int
	var revenue float64
	if err := r.q.QueryRowContext(ctx, query, from, to).Scan(&count, &revenue); err != nil {
		return 0, 0, err
	}

	return count, revenue, nil
}

func collectLoans(rows *sql.Rows) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows.Scan)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure LoanRepository implements repository.LoanRepository.
var _ repository.LoanRepository = (*LoanRepository)(nil)
