package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	TransportCacheTTL = 15 * time.Second // status flips on every loan start/end
	StationCacheTTL   = 5 * time.Minute  // stations rarely change
)

// Key prefixes
const (
	transportCachePrefix = "cache:transport:"
	stationCachePrefix   = "cache:station:"
)

// CachedTransport represents a cached transport entity.
type CachedTransport struct {
	ID         int64   `json:"id"`
	Code       string  `json:"code"`
	Type       string  `json:"type"`
	HourlyRate float64 `json:"hourly_rate"`
	Status     string  `json:"status"`
	StationID  *int64  `json:"station_id,omitempty"`
}

// CachedStation represents a cached station entity.
type CachedStation struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	MaxCapacity int     `json:"max_capacity"`
}

// GetTransport retrieves a transport from cache. Returns nil on a miss.
func (s *CacheStore) GetTransport(ctx context.Context, id int64) (*CachedTransport, error) {
	key := transportCachePrefix + strconv.FormatInt(id, 10)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var t CachedTransport
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SetTransport stores a transport in cache.
func (s *CacheStore) SetTransport(ctx context.Context, t *CachedTransport) error {
	key := transportCachePrefix + strconv.FormatInt(t.ID, 10)
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TransportCacheTTL).Err()
}

// InvalidateTransport removes a transport from cache.
func (s *CacheStore) InvalidateTransport(ctx context.Context, id int64) error {
	key := transportCachePrefix + strconv.FormatInt(id, 10)
	return s.client.Del(ctx, key).Err()
}

// GetStation retrieves a station from cache. Returns nil on a miss.
func (s *CacheStore) GetStation(ctx context.Context, id int64) (*CachedStation, error) {
	key := stationCachePrefix + strconv.FormatInt(id, 10)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var station CachedStation
	if err := json.Unmarshal(data, &station); err != nil {
		return nil, err
	}
	return &station, nil
}

// SetStation stores a station in cache.
func (s *CacheStore) SetStation(ctx context.Context, station *CachedStation) error {
	key := stationCachePrefix + strconv.FormatInt(station.ID, 10)
	data, err := json.Marshal(station)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, StationCacheTTL).Err()
}

// InvalidateStation removes a station from cache.
func (s *CacheStore) InvalidateStation(ctx context.Context, id int64) error {
	key := stationCachePrefix + strconv.FormatInt(id, 10)
	return s.client.Del(ctx, key).Err()
}
