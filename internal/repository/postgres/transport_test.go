package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomove/internal/domain"
	"ecomove/internal/repository"
)

func transportRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "code", "type", "hourly_rate", "status", "station_id", "created_at",
	})
}

func TestTransportRepository_Claim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTransportRepository(db)
	ctx := context.Background()

	claimQuery := regexp.QuoteMeta(`UPDATE transports SET status = $1, station_id = NULL WHERE id = $2 AND status = $3`)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(claimQuery).
			WithArgs(string(domain.TransportStatusInUse), int64(5), string(domain.TransportStatusAvailable)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Claim(ctx, 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyClaimed", func(t *testing.T) {
		// No row matched, but the transport exists: state conflict.
		mock.ExpectExec(claimQuery).
			WithArgs(string(domain.TransportStatusInUse), int64(5), string(domain.TransportStatusAvailable)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM transports WHERE id = $1`)).
			WithArgs(int64(5)).
			WillReturnRows(transportRows().AddRow(
				int64(5), "ECO-0005", string(domain.TransportTypeScooter),
				6000.0, string(domain.TransportStatusInUse), nil, time.Now(),
			))

		assert.ErrorIs(t, repo.Claim(ctx, 5), repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(claimQuery).
			WithArgs(string(domain.TransportStatusInUse), int64(404), string(domain.TransportStatusAvailable)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM transports WHERE id = $1`)).
			WithArgs(int64(404)).
			WillReturnRows(transportRows())

		assert.ErrorIs(t, repo.Claim(ctx, 404), repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransportRepository_GetDetailByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTransportRepository(db)
	ctx := context.Background()

	detailRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "code", "type", "hourly_rate", "status", "station_id",
			"battery_percent", "range_km", "gears", "created_at",
		})
	}
	detailQuery := regexp.QuoteMeta(`battery_percent, range_km, gears`)

	t.Run("Electric", func(t *testing.T) {
		station := int64(3)
		mock.ExpectQuery(detailQuery).
			WithArgs(int64(1)).
			WillReturnRows(detailRows().AddRow(
				int64(1), "ECO-0001", string(domain.TransportTypeElectricScooter),
				8000.0, string(domain.TransportStatusAvailable), station,
				80.0, 35.0, nil, time.Now(),
			))

		detail, err := repo.GetDetailByID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, detail.Electric)
		assert.InDelta(t, 80.0, detail.Electric.BatteryPercent, 0.001)
		assert.InDelta(t, 35.0, detail.Electric.RangeKm, 0.001)
		assert.Nil(t, detail.Bicycle)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Bicycle", func(t *testing.T) {
		mock.ExpectQuery(detailQuery).
			WithArgs(int64(2)).
			WillReturnRows(detailRows().AddRow(
				int64(2), "ECO-0002", string(domain.TransportTypeBicycle),
				3000.0, string(domain.TransportStatusAvailable), nil,
				nil, nil, 7, time.Now(),
			))

		detail, err := repo.GetDetailByID(ctx, 2)
		require.NoError(t, err)
		require.NotNil(t, detail.Bicycle)
		assert.Equal(t, 7, detail.Bicycle.Gears)
		assert.Nil(t, detail.Electric)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
