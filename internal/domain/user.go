package domain

import "time"

// UserStatus represents the account state of a user.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// User represents a registered rider in the system.
type User struct {
	ID        int64
	Name      string
	Email     string
	Status    UserStatus
	CreatedAt time.Time
}
