package service

import (
	"context"
	"errors"

	"ecomove/internal/domain"
	"ecomove/internal/redis"
	"ecomove/internal/repository"
)

// TransportService handles transport lookups and the status transitions
// that happen outside a loan (maintenance, decommissioning). Status
// changes during a loan belong to the loan engine alone.
type TransportService struct {
	transportRepo repository.TransportRepository
	cacheStore    *redis.CacheStore
}

// NewTransportService creates a new TransportService.
func NewTransportService(transportRepo repository.TransportRepository, cacheStore *redis.CacheStore) *TransportService {
	return &TransportService{
		transportRepo: transportRepo,
		cacheStore:    cacheStore,
	}
}

// GetTransport retrieves a transport, serving from cache when possible.
func (s *TransportService) GetTransport(ctx context.Context, id int64) (*domain.Transport, error) {
	if id <= 0 {
		return nil, ErrInvalidTransportID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetTransport(ctx, id); err == nil && cached != nil {
			return cachedToTransport(cached), nil
		}
	}

	transport, err := s.transportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransportNotFound
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetTransport(ctx, transportToCached(transport))
	}

	return transport, nil
}

// GetTransportDetail retrieves a transport with its subtype fields,
// always from the database.
func (s *TransportService) GetTransportDetail(ctx context.Context, id int64) (*domain.TransportDetail, error) {
	if id <= 0 {
		return nil, ErrInvalidTransportID
	}

	detail, err := s.transportRepo.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransportNotFound
		}
		return nil, err
	}

	return detail, nil
}

// GetAllTransports retrieves all transports.
func (s *TransportService) GetAllTransports(ctx context.Context) ([]*domain.Transport, error) {
	return s.transportRepo.GetAll(ctx)
}

// ChangeStatus applies an out-of-loan status transition: available,
// maintenance or out_of_service. A transport that is out on a loan cannot
// be transitioned here, and in_use can only be set by the loan engine.
func (s *TransportService) ChangeStatus(ctx context.Context, id int64, status domain.TransportStatus) (*domain.Transport, error) {
	if id <= 0 {
		return nil, ErrInvalidTransportID
	}

	switch status {
	case domain.TransportStatusAvailable, domain.TransportStatusMaintenance,
		domain.TransportStatusOutOfService:
	default:
		return nil, ErrInvalidTransportStatus
	}

	transport, err := s.transportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransportNotFound
		}
		return nil, err
	}

	if transport.Status == domain.TransportStatusInUse {
		return nil, ErrTransportInUse
	}

	if err := s.transportRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	transport.Status = status

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateTransport(ctx, id)
	}

	return transport, nil
}

func cachedToTransport(c *redis.CachedTransport) *domain.Transport {
	return &domain.Transport{
		ID:         c.ID,
		Code:       c.Code,
		Type:       domain.TransportType(c.Type),
		HourlyRate: c.HourlyRate,
		Status:     domain.TransportStatus(c.Status),
		StationID:  c.StationID,
	}
}

func transportToCached(t *domain.Transport) *redis.CachedTransport {
	return &redis.CachedTransport{
		ID:         t.ID,
		Code:       t.Code,
		Type:       string(t.Type),
		HourlyRate: t.HourlyRate,
		Status:     string(t.Status),
		StationID:  t.StationID,
	}
}
