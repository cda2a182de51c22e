package repository

import "context"

// TxRepos is the set of repositories scoped to one database transaction.
// Every read and write made through it belongs to the same transaction.
type TxRepos struct {
	Users      UserRepository
	Transports TransportRepository
	Loans      LoanRepository
}

// TxManager runs a unit of work inside a single database transaction.
// If fn returns an error or panics, the transaction is rolled back;
// otherwise it is committed.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx TxRepos) error) error
}
