package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const stationLocationKey = "stations:locations"

// StationLocation represents a station's position.
type StationLocation struct {
	StationID int64
	Lat       float64
	Lng       float64
	DistKm    float64
}

// LocationStore handles the station geo index in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// AddStation indexes a station's position using GEOADD.
func (s *LocationStore) AddStation(ctx context.Context, stationID int64, lat, lng float64) error {
	return s.client.GeoAdd(ctx, stationLocationKey, &redis.GeoLocation{
		Name:      strconv.FormatInt(stationID, 10),
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyStations returns stations within the given radius (in
// kilometers), closest first.
func (s *LocationStore) FindNearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]StationLocation, error) {
	results, err := s.client.GeoRadius(ctx, stationLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]StationLocation, 0, len(results))
	for _, r := range results {
		id, err := strconv.ParseInt(r.Name, 10, 64)
		if err != nil {
			continue
		}
		locations = append(locations, StationLocation{
			StationID: id,
			Lat:       r.Latitude,
			Lng:       r.Longitude,
			DistKm:    r.Dist,
		})
	}

	return locations, nil
}

// RemoveStation removes a station from the geo index.
func (s *LocationStore) RemoveStation(ctx context.Context, stationID int64) error {
	return s.client.ZRem(ctx, stationLocationKey, strconv.FormatInt(stationID, 10)).Err()
}
