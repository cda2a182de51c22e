package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireUserLoanLock attempts to acquire the loan-start lock for a user.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireUserLoanLock(ctx context.Context, userID int64, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:user-loan:%d", userID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseUserLoanLock releases the loan-start lock for a user.
func (s *LockStore) ReleaseUserLoanLock(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("lock:user-loan:%d", userID)

	return s.client.Del(ctx, key).Err()
}
