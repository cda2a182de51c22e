package domain

import "time"

// Station represents a fixed dock location where transports are picked up
// and returned.
type Station struct {
	ID          int64
	Name        string
	Address     string
	Lat         float64
	Lng         float64
	MaxCapacity int
	CreatedAt   time.Time
}
