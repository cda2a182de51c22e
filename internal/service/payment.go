package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ecomove/internal/domain"
	"ecomove/internal/repository"
)

// PSP is the interface for a Payment Service Provider.
type PSP interface {
	Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (bool, error)
}

// MockPSP is a stand-in PSP used until a real provider is wired.
type MockPSP struct{}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

// Charge simulates a charge. Always succeeds.
func (p *MockPSP) Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (bool, error) {
	return true, nil
}

// PaymentService records the charge for a completed loan.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	psp         PSP
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(paymentRepo repository.PaymentRepository, psp PSP) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		psp:         psp,
	}
}

// ProcessPaymentRequest contains the parameters for processing a payment.
type ProcessPaymentRequest struct {
	LoanID int64
	Amount float64
	Method domain.PaymentMethod
}

// ProcessPayment charges a completed loan. Processing is idempotent per
// loan: a repeated call returns the already-recorded payment.
func (s *PaymentService) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*domain.Payment, error) {
	if req.LoanID <= 0 {
		return nil, ErrInvalidLoanID
	}
	if req.Amount < 0 {
		return nil, ErrInvalidPaymentAmount
	}

	idempotencyKey := fmt.Sprintf("payment:loan:%d", req.LoanID)

	existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	payment := &domain.Payment{
		ID:             uuid.New().String(),
		LoanID:         req.LoanID,
		Amount:         req.Amount,
		Method:         req.Method,
		Status:         domain.PaymentStatusPending,
		IdempotencyKey: idempotencyKey,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	success, err := s.psp.Charge(ctx, req.Amount, req.Method)
	if err != nil || !success {
		_ = s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentStatusFailed)
		payment.Status = domain.PaymentStatusFailed
		return payment, nil
	}

	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentStatusSuccess); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentStatusSuccess

	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	return payment, nil
}
