package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ecomove/internal/domain"
)

// ReceiptService handles rental receipt generation.
type ReceiptService struct {
	notificationService *NotificationService
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(notificationService *NotificationService) *ReceiptService {
	return &ReceiptService{
		notificationService: notificationService,
	}
}

// GenerateReceiptRequest contains the parameters for generating a receipt.
type GenerateReceiptRequest struct {
	Loan          *domain.Loan
	TransportType domain.TransportType
	Fare          domain.FareBreakdown
	Payment       *domain.Payment
}

// GenerateReceipt builds the receipt for a completed loan.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, req GenerateReceiptRequest) (*domain.Receipt, error) {
	if req.Loan == nil {
		return nil, ErrInvalidLoanID
	}

	paymentStatus := domain.PaymentStatusPending
	if req.Payment != nil {
		paymentStatus = req.Payment.Status
	}

	var destination int64
	if req.Loan.DestinationStationID != nil {
		destination = *req.Loan.DestinationStationID
	}

	receipt := &domain.Receipt{
		ID:                   uuid.New().String(),
		LoanID:               req.Loan.ID,
		UserID:               req.Loan.UserID,
		TransportID:          req.Loan.TransportID,
		TransportType:        req.TransportType,
		OriginStationID:      req.Loan.OriginStationID,
		DestinationStationID: destination,
		Fare:                 req.Fare,
		PaymentMethod:        req.Loan.PaymentMethod,
		PaymentStatus:        paymentStatus,
		StartedAt:            req.Loan.StartedAt,
		EndedAt:              req.Loan.EndedAt,
		CreatedAt:            time.Now(),
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyReceiptReady(ctx, receipt)
	}

	return receipt, nil
}

// FormatReceipt formats the receipt as a string (for email/print).
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	return `
=====================================
        ECOMOVE RECEIPT
=====================================
Receipt ID: ` + receipt.ID + `
Loan ID: ` + fmt.Sprintf("%d", receipt.LoanID) + `
Date: ` + receipt.CreatedAt.Format("Jan 02, 2006 3:04 PM") + `

RENTAL DETAILS
-------------------------------------
Transport:   #` + fmt.Sprintf("%d", receipt.TransportID) + ` (` + string(receipt.TransportType) + `)
From:        station #` + fmt.Sprintf("%d", receipt.OriginStationID) + `
To:          station #` + fmt.Sprintf("%d", receipt.DestinationStationID) + `
Duration:    ` + fmt.Sprintf("%d min", receipt.Fare.DurationMinutes) + `

FARE BREAKDOWN
-------------------------------------
Hourly rate:      $` + formatMoney(receipt.Fare.BaseRate) + `
Time charge:      $` + formatMoney(receipt.Fare.Subtotal) + `
Discounts:       -$` + formatMoney(receipt.Fare.Discounts) + `
Tax:             +$` + formatMoney(receipt.Fare.Taxes) + `
-------------------------------------
TOTAL:            $` + formatMoney(receipt.Fare.TotalCost) + `

PAYMENT
-------------------------------------
Method: ` + string(receipt.PaymentMethod) + `
Status: ` + string(receipt.PaymentStatus) + `

=====================================
     Thank you for moving green!
=====================================
`
}

func formatMoney(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
