package postgres

import (
	"context"
	"database/sql"

	"ecomove/internal/repository"
)

// TxManager runs units of work inside PostgreSQL transactions.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx begins a transaction, hands fn a transaction-scoped repository
// set, and commits if fn returns nil. On error or panic the transaction is
// rolled back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx repository.TxRepos) error) (err error) {
	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	repos := repository.TxRepos{
		Users:      NewUserRepositoryWithTx(sqlTx),
		Transports: NewTransportRepositoryWithTx(sqlTx),
		Loans:      NewLoanRepositoryWithTx(sqlTx),
	}

	if err = fn(repos); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Ensure TxManager implements repository.TxManager.
var _ repository.TxManager = (*TxManager)(nil)
