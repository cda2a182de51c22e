package repository

import (
	"context"

	"ecomove/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user and fills in its generated ID.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// UpdateStatus updates a user's account status.
	UpdateStatus(ctx context.Context, id int64, status domain.UserStatus) error

	// LockByID takes a row lock on the user for the duration of the
	// surrounding transaction. Outside a transaction it is a plain read.
	LockByID(ctx context.Context, id int64) error
}
