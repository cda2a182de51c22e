package service

import (
	"context"
	"errors"
	"time"

	"ecomove/internal/domain"
	"ecomove/internal/repository"
)

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
	topListLimit           = 10
)

// ReportService builds read models over the loan store: per-user history
// and period aggregations. It never mutates state.
type ReportService struct {
	loanRepo repository.LoanRepository
	userRepo repository.UserRepository
}

// NewReportService creates a new ReportService.
func NewReportService(loanRepo repository.LoanRepository, userRepo repository.UserRepository) *ReportService {
	return &ReportService{
		loanRepo: loanRepo,
		userRepo: userRepo,
	}
}

// UserHistoryRequest contains the parameters for a user history query.
type UserHistoryRequest struct {
	UserID int64
	Page   int // 1-based; 0 means first page
	Limit  int // 0 means default page size
}

// UserHistoryResponse is a page of a user's loans with derived stats.
type UserHistoryResponse struct {
	Loans []*domain.Loan
	Stats domain.UserLoanStats
	Page  int
	Limit int
}

// GetUserHistory retrieves a page of the user's loans together with the
// aggregate stats over their whole history.
func (s *ReportService) GetUserHistory(ctx context.Context, req UserHistoryRequest) (*UserHistoryResponse, error) {
	if req.UserID <= 0 {
		return nil, ErrInvalidUserID
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryPageSize
	}
	if limit > maxHistoryPageSize {
		limit = maxHistoryPageSize
	}

	loans, err := s.loanRepo.GetByUserID(ctx, req.UserID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	stats, err := s.loanRepo.GetUserStats(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	return &UserHistoryResponse{
		Loans: loans,
		Stats: *stats,
		Page:  page,
		Limit: limit,
	}, nil
}

// GetPeriodReport aggregates loan activity within [from, to).
func (s *ReportService) GetPeriodReport(ctx context.Context, from, to time.Time) (*domain.PeriodReport, error) {
	if !to.After(from) {
		return nil, ErrInvalidDuration
	}

	total, revenue, err := s.loanRepo.PeriodTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay, err := s.loanRepo.CountByDay(ctx, from, to)
	if err != nil {
		return nil, err
	}

	topTransports, err := s.loanRepo.TopTransports(ctx, from, to, topListLimit)
	if err != nil {
		return nil, err
	}

	topStations, err := s.loanRepo.TopStations(ctx, from, to, topListLimit)
	if err != nil {
		return nil, err
	}

	return &domain.PeriodReport{
		From:          from,
		To:            to,
		TotalLoans:    total,
		TotalRevenue:  revenue,
		LoansByDay:    byDay,
		TopTransports: topTransports,
		TopStations:   topStations,
	}, nil
}
