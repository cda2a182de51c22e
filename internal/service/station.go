package service

import (
	"context"
	"errors"
	"time"

	"ecomove/internal/domain"
	"ecomove/internal/redis"
	"ecomove/internal/repository"
)

const defaultNearbyRadiusKm = 2.0

// StationService handles station lookups and the nearby-station locator.
type StationService struct {
	stationRepo   repository.StationRepository
	locationStore redis.LocationStoreInterface
	cacheStore    *redis.CacheStore
}

// NewStationService creates a new StationService.
func NewStationService(
	stationRepo repository.StationRepository,
	locationStore redis.LocationStoreInterface,
	cacheStore *redis.CacheStore,
) *StationService {
	return &StationService{
		stationRepo:   stationRepo,
		locationStore: locationStore,
		cacheStore:    cacheStore,
	}
}

// CreateStationRequest contains the parameters for registering a station.
type CreateStationRequest struct {
	Name        string
	Address     string
	Lat         float64
	Lng         float64
	MaxCapacity int
}

// CreateStation registers a new station and indexes its position.
func (s *StationService) CreateStation(ctx context.Context, req CreateStationRequest) (*domain.Station, error) {
	if req.Name == "" || req.MaxCapacity <= 0 {
		return nil, ErrInvalidStationData
	}

	station := &domain.Station{
		Name:        req.Name,
		Address:     req.Address,
		Lat:         req.Lat,
		Lng:         req.Lng,
		MaxCapacity: req.MaxCapacity,
		CreatedAt:   time.Now(),
	}

	if err := s.stationRepo.Create(ctx, station); err != nil {
		return nil, err
	}

	if s.locationStore != nil {
		_ = s.locationStore.AddStation(ctx, station.ID, station.Lat, station.Lng)
	}

	return station, nil
}

// GetStation retrieves a station, serving from cache when possible.
func (s *StationService) GetStation(ctx context.Context, id int64) (*domain.Station, error) {
	if id <= 0 {
		return nil, ErrInvalidStationID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetStation(ctx, id); err == nil && cached != nil {
			return &domain.Station{
				ID:          cached.ID,
				Name:        cached.Name,
				Address:     cached.Address,
				Lat:         cached.Lat,
				Lng:         cached.Lng,
				MaxCapacity: cached.MaxCapacity,
			}, nil
		}
	}

	station, err := s.stationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetStation(ctx, &redis.CachedStation{
			ID:          station.ID,
			Name:        station.Name,
			Address:     station.Address,
			Lat:         station.Lat,
			Lng:         station.Lng,
			MaxCapacity: station.MaxCapacity,
		})
	}

	return station, nil
}

// GetAllStations retrieves all stations.
func (s *StationService) GetAllStations(ctx context.Context) ([]*domain.Station, error) {
	return s.stationRepo.GetAll(ctx)
}

// NearbyStation is a station hit from the locator with its distance.
type NearbyStation struct {
	Station *domain.Station
	DistKm  float64
}

// FindNearby returns stations within radiusKm of the position, closest
// first. A non-positive radius uses the default.
func (s *StationService) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyStation, error) {
	if s.locationStore == nil {
		return nil, nil
	}

	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}

	locations, err := s.locationStore.FindNearbyStations(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyStation, 0, len(locations))
	for _, loc := range locations {
		station, err := s.GetStation(ctx, loc.StationID)
		if err != nil {
			if errors.Is(err, ErrStationNotFound) {
				// Stale geo-index entry.
				_ = s.locationStore.RemoveStation(ctx, loc.StationID)
				continue
			}
			return nil, err
		}
		nearby = append(nearby, NearbyStation{Station: station, DistKm: loc.DistKm})
	}

	return nearby, nil
}
