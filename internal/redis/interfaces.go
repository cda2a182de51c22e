package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for the station geo index.
type LocationStoreInterface interface {
	AddStation(ctx context.Context, stationID int64, lat, lng float64) error
	FindNearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]StationLocation, error)
	RemoveStation(ctx context.Context, stationID int64) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireUserLoanLock(ctx context.Context, userID int64, ttl time.Duration) (bool, error)
	ReleaseUserLoanLock(ctx context.Context, userID int64) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
