package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"ecomove/internal/domain"
	"ecomove/internal/redis"
	"ecomove/internal/repository"
)

const userLoanLockTTL = 10 * time.Second

// LoanService orchestrates the rental lifecycle: starting, completing,
// cancelling and extending loans.
type LoanService struct {
	txManager           repository.TxManager
	loanRepo            repository.LoanRepository
	userRepo            repository.UserRepository
	transportRepo       repository.TransportRepository
	stationRepo         repository.StationRepository
	lockStore           redis.LockStoreInterface
	fare                *FareCalculator
	minBatteryPercent   float64
	paymentService      *PaymentService
	receiptService      *ReceiptService
	notificationService *NotificationService
}

// NewLoanService creates a new LoanService.
func NewLoanService(
	txManager repository.TxManager,
	loanRepo repository.LoanRepository,
	userRepo repository.UserRepository,
	transportRepo repository.TransportRepository,
	stationRepo repository.StationRepository,
	lockStore redis.LockStoreInterface,
	fare *FareCalculator,
	minBatteryPercent float64,
	paymentService *PaymentService,
	receiptService *ReceiptService,
	notificationService *NotificationService,
) *LoanService {
	return &LoanService{
		txManager:           txManager,
		loanRepo:            loanRepo,
		userRepo:            userRepo,
		transportRepo:       transportRepo,
		stationRepo:         stationRepo,
		lockStore:           lockStore,
		fare:                fare,
		minBatteryPercent:   minBatteryPercent,
		paymentService:      paymentService,
		receiptService:      receiptService,
		notificationService: notificationService,
	}
}

// StartLoanRequest contains the parameters for starting a loan.
type StartLoanRequest struct {
	UserID           int64
	TransportID      int64
	OriginStationID  int64
	EstimatedMinutes *int
}

// StartLoan validates eligibility and availability, then creates the loan
// and claims the transport atomically. On any failure nothing is written.
func (s *LoanService) StartLoan(ctx context.Context, req StartLoanRequest) (*domain.Loan, error) {
	if req.UserID <= 0 {
		return nil, ErrInvalidUserID
	}
	if req.TransportID <= 0 {
		return nil, ErrInvalidTransportID
	}
	if req.OriginStationID <= 0 {
		return nil, ErrInvalidStationID
	}
	if req.EstimatedMinutes != nil && *req.EstimatedMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	// Fast-path guard against a concurrent start for the same user. The
	// database transaction below is the actual correctness boundary.
	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireUserLoanLock(ctx, req.UserID, userLoanLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrConcurrentStart
		}
		defer func() { _ = s.lockStore.ReleaseUserLoanLock(ctx, req.UserID) }()
	}

	// Validation sequence: every read happens before any write, and the
	// first failure stops the whole operation.
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotEligible
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrUserNotEligible
	}

	open, err := s.loanRepo.GetOpenByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, &ActiveLoanError{LoanID: open.ID}
	}

	transport, err := s.transportRepo.GetDetailByID(ctx, req.TransportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransportNotFound
		}
		return nil, err
	}

	if transport.Status != domain.TransportStatusAvailable {
		return nil, ErrTransportUnavailable
	}

	if transport.StationID == nil || *transport.StationID != req.OriginStationID {
		return nil, ErrTransportStationMismatch
	}

	if transport.Electric != nil && transport.Electric.BatteryPercent < s.minBatteryPercent {
		return nil, ErrInsufficientBattery
	}

	if _, err := s.stationRepo.GetByID(ctx, req.OriginStationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	now := time.Now()
	loan := &domain.Loan{
		UserID:           req.UserID,
		TransportID:      req.TransportID,
		OriginStationID:  req.OriginStationID,
		EstimatedMinutes: req.EstimatedMinutes,
		StartedAt:        now,
		Status:           domain.LoanStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.txManager.WithinTx(ctx, func(tx repository.TxRepos) error {
		// The user row lock serializes concurrent starts so the open-loan
		// re-check and the insert are atomic.
		if err := tx.Users.LockByID(ctx, req.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotEligible
			}
			return err
		}

		open, err := tx.Loans.GetOpenByUserID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if open != nil {
			return &ActiveLoanError{LoanID: open.ID}
		}

		if err := tx.Loans.Create(ctx, loan); err != nil {
			return err
		}

		if err := tx.Transports.Claim(ctx, req.TransportID); err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return ErrTransportUnavailable
			case errors.Is(err, repository.ErrNotFound):
				return ErrTransportNotFound
			}
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyLoanStarted(ctx, loan)
	}

	return loan, nil
}

// CompleteLoanRequest contains the parameters for completing a loan.
type CompleteLoanRequest struct {
	LoanID               int64
	DestinationStationID int64
	PaymentMethod        domain.PaymentMethod
}

// CompleteLoanResponse contains the result of completing a loan.
type CompleteLoanResponse struct {
	Loan    *domain.Loan
	Fare    domain.FareBreakdown
	Payment *domain.Payment
	Receipt *domain.Receipt
}

// CompleteLoan finalizes an active loan: computes the fare, closes the
// loan and returns the transport to the destination station.
func (s *LoanService) CompleteLoan(ctx context.Context, req CompleteLoanRequest) (*CompleteLoanResponse, error) {
	if req.LoanID <= 0 {
		return nil, ErrInvalidLoanID
	}
	if req.DestinationStationID <= 0 {
		return nil, ErrInvalidStationID
	}
	method, err := ValidatePaymentMethod(string(req.PaymentMethod))
	if err != nil {
		return nil, err
	}
	req.PaymentMethod = method

	loan, err := s.loanRepo.GetByID(ctx, req.LoanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}

	// Deliberately strict: only active loans complete, an extended loan
	// stays open until it is reactivated or expires operationally. This
	// read rejects early; the guarded update in the transaction below is
	// what actually holds under concurrency.
	if loan.Status != domain.LoanStatusActive {
		return nil, ErrLoanNotActive
	}

	if _, err := s.stationRepo.GetByID(ctx, req.DestinationStationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	transport, err := s.transportRepo.GetByID(ctx, loan.TransportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransportNotFound
		}
		return nil, err
	}

	now := time.Now()
	elapsed := elapsedMinutes(loan.StartedAt, now)
	fare := s.fare.Calculate(transport.HourlyRate, elapsed, transport.Type)

	destination := req.DestinationStationID
	total := fare.TotalCost

	loan.DestinationStationID = &destination
	loan.EndedAt = now
	loan.TotalCost = &total
	loan.Status = domain.LoanStatusCompleted
	loan.PaymentMethod = req.PaymentMethod
	loan.UpdatedAt = now

	err = s.txManager.WithinTx(ctx, func(tx repository.TxRepos) error {
		// The status-guarded update is the in-transaction gate: if a
		// concurrent complete or cancel closed the loan after the read
		// above, this matches nothing and the whole transaction aborts.
		if err := tx.Loans.Update(ctx, loan, domain.LoanStatusActive); err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return ErrLoanNotActive
			case errors.Is(err, repository.ErrNotFound):
				return ErrLoanNotFound
			}
			return err
		}

		if err := tx.Transports.UpdateStatus(ctx, loan.TransportID, domain.TransportStatusAvailable); err != nil {
			return err
		}

		return tx.Transports.UpdateStation(ctx, loan.TransportID, &destination)
	})
	if err != nil {
		return nil, err
	}

	// Everything past the commit is best effort: the loan is closed even if
	// payment or receipt work fails.
	var payment *domain.Payment
	if s.paymentService != nil {
		payment, err = s.paymentService.ProcessPayment(ctx, ProcessPaymentRequest{
			LoanID: loan.ID,
			Amount: total,
			Method: req.PaymentMethod,
		})
		if err != nil {
			payment = nil
		}
	}

	var receipt *domain.Receipt
	if s.receiptService != nil {
		receipt, _ = s.receiptService.GenerateReceipt(ctx, GenerateReceiptRequest{
			Loan:          loan,
			TransportType: transport.Type,
			Fare:          fare,
			Payment:       payment,
		})
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyLoanCompleted(ctx, loan, total)
		if payment != nil {
			switch payment.Status {
			case domain.PaymentStatusSuccess:
				_ = s.notificationService.NotifyPaymentSuccess(ctx, payment, loan.UserID)
			case domain.PaymentStatusFailed:
				_ = s.notificationService.NotifyPaymentFailed(ctx, payment, loan.UserID)
			}
		}
	}

	return &CompleteLoanResponse{
		Loan:    loan,
		Fare:    fare,
		Payment: payment,
		Receipt: receipt,
	}, nil
}

// CancelLoanRequest contains the parameters for cancelling a loan.
type CancelLoanRequest struct {
	LoanID int64
	Reason string
}

// CancelLoan terminates an active loan and frees the transport without
// relocating it. The accumulated cost is left untouched; any cancellation
// fee is a caller concern.
func (s *LoanService) CancelLoan(ctx context.Context, req CancelLoanRequest) (*domain.Loan, error) {
	if req.LoanID <= 0 {
		return nil, ErrInvalidLoanID
	}

	loan, err := s.loanRepo.GetByID(ctx, req.LoanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}

	// Same strictness as completion: extended loans cannot be cancelled
	// through this path, only active ones.
	if loan.Status != domain.LoanStatusActive {
		return nil, ErrOnlyActiveCancellable
	}

	now := time.Now()
	loan.Status = domain.LoanStatusCancelled
	loan.EndedAt = now
	loan.CancelReason = req.Reason
	loan.UpdatedAt = now

	err = s.txManager.WithinTx(ctx, func(tx repository.TxRepos) error {
		if err := tx.Loans.Update(ctx, loan, domain.LoanStatusActive); err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return ErrOnlyActiveCancellable
			case errors.Is(err, repository.ErrNotFound):
				return ErrLoanNotFound
			}
			return err
		}

		// The vehicle is considered returned wherever it currently sits.
		return tx.Transports.UpdateStatus(ctx, loan.TransportID, domain.TransportStatusAvailable)
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyLoanCancelled(ctx, loan, req.Reason)
	}

	return loan, nil
}

// ExtendLoanRequest contains the parameters for extending a loan.
type ExtendLoanRequest struct {
	LoanID            int64
	AdditionalMinutes int
}

// ExtendLoanResponse contains the result of extending a loan.
type ExtendLoanResponse struct {
	Loan           *domain.Loan
	AdditionalCost float64
}

// ExtendLoan adds time and cost to an active loan and moves it to
// extended status. The transport's state does not change.
func (s *LoanService) ExtendLoan(ctx context.Context, req ExtendLoanRequest) (*ExtendLoanResponse, error) {
	if req.LoanID <= 0 {
		return nil, ErrInvalidLoanID
	}
	if req.AdditionalMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	loan, err := s.loanRepo.GetByID(ctx, req.LoanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}

	if loan.Status != domain.LoanStatusActive {
		return nil, ErrLoanNotActive
	}

	transport, err := s.transportRepo.GetByID(ctx, loan.TransportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransportNotFound
		}
		return nil, err
	}

	additionalCost := s.fare.ExtensionCost(transport.HourlyRate, req.AdditionalMinutes)

	previous := 0.0
	if loan.TotalCost != nil {
		previous = *loan.TotalCost
	}
	accumulated := previous + additionalCost

	loan.TotalCost = &accumulated
	loan.Status = domain.LoanStatusExtended
	loan.UpdatedAt = time.Now()

	if err := s.loanRepo.Update(ctx, loan, domain.LoanStatusActive); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrLoanNotActive
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrLoanNotFound
		}
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyLoanExtended(ctx, loan, req.AdditionalMinutes, additionalCost)
	}

	return &ExtendLoanResponse{
		Loan:           loan,
		AdditionalCost: additionalCost,
	}, nil
}

// GetLoan retrieves a loan by ID.
func (s *LoanService) GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error) {
	if loanID <= 0 {
		return nil, ErrInvalidLoanID
	}

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}

	return loan, nil
}

// GetAllLoans retrieves recent loans.
func (s *LoanService) GetAllLoans(ctx context.Context) ([]*domain.Loan, error) {
	return s.loanRepo.GetAll(ctx)
}

// ValidatePaymentMethod validates a payment method string. Hyphenated
// spellings (credit-card, digital-wallet) are accepted and normalized to
// the stored underscore form.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	normalized := domain.PaymentMethod(strings.ReplaceAll(method, "-", "_"))
	switch normalized {
	case domain.PaymentMethodCash, domain.PaymentMethodCreditCard,
		domain.PaymentMethodPSE, domain.PaymentMethodDigitalWallet:
		return normalized, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// elapsedMinutes rounds the elapsed wall time up to whole minutes, so a
// started rental is billed for at least the minute it is in.
func elapsedMinutes(start, end time.Time) int {
	seconds := end.Sub(start).Seconds()
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(seconds / 60))
}
