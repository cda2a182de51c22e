package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a guarded update finds the row in a
	// different state than required (e.g. claiming a transport that is no
	// longer available).
	ErrConflict = errors.New("entity state conflict")
)
