package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ecomove/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationLoanStarted    NotificationType = "LOAN_STARTED"
	NotificationLoanCompleted  NotificationType = "LOAN_COMPLETED"
	NotificationLoanCancelled  NotificationType = "LOAN_CANCELLED"
	NotificationLoanExtended   NotificationType = "LOAN_EXTENDED"
	NotificationPaymentSuccess NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed  NotificationType = "PAYMENT_FAILED"
	NotificationReceiptReady   NotificationType = "RECEIPT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID int64
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery. The delivery channels
// (push, email, SMS) are stubbed; events are logged.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyLoanStarted notifies the user that their rental has started.
func (s *NotificationService) NotifyLoanStarted(ctx context.Context, loan *domain.Loan) error {
	return s.send(ctx, Notification{
		Type:        NotificationLoanStarted,
		RecipientID: loan.UserID,
		Title:       "Rental Started",
		Message:     fmt.Sprintf("Your rental of transport #%d has started. Enjoy the ride!", loan.TransportID),
		Data: map[string]interface{}{
			"loan_id":    loan.ID,
			"started_at": loan.StartedAt,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyLoanCompleted notifies the user that their rental is complete.
func (s *NotificationService) NotifyLoanCompleted(ctx context.Context, loan *domain.Loan, total float64) error {
	return s.send(ctx, Notification{
		Type:        NotificationLoanCompleted,
		RecipientID: loan.UserID,
		Title:       "Rental Completed",
		Message:     fmt.Sprintf("Your rental has ended. Total cost: $%.2f", total),
		Data: map[string]interface{}{
			"loan_id":  loan.ID,
			"total":    total,
			"ended_at": loan.EndedAt,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyLoanCancelled notifies the user that their rental was cancelled.
func (s *NotificationService) NotifyLoanCancelled(ctx context.Context, loan *domain.Loan, reason string) error {
	return s.send(ctx, Notification{
		Type:        NotificationLoanCancelled,
		RecipientID: loan.UserID,
		Title:       "Rental Cancelled",
		Message:     "Your rental has been cancelled.",
		Data: map[string]interface{}{
			"loan_id": loan.ID,
			"reason":  reason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyLoanExtended notifies the user that their rental was extended.
func (s *NotificationService) NotifyLoanExtended(ctx context.Context, loan *domain.Loan, minutes int, cost float64) error {
	return s.send(ctx, Notification{
		Type:        NotificationLoanExtended,
		RecipientID: loan.UserID,
		Title:       "Rental Extended",
		Message:     fmt.Sprintf("Your rental was extended by %d minutes for $%.2f", minutes, cost),
		Data: map[string]interface{}{
			"loan_id":            loan.ID,
			"additional_minutes": minutes,
			"additional_cost":    cost,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentSuccess notifies the user of a successful payment.
func (s *NotificationService) NotifyPaymentSuccess(ctx context.Context, payment *domain.Payment, userID int64) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentSuccess,
		RecipientID: userID,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Payment of $%.2f was successful", payment.Amount),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentFailed notifies the user of a failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment, userID int64) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: userID,
		Title:       "Payment Failed",
		Message:     fmt.Sprintf("Payment of $%.2f failed. Please try again.", payment.Amount),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReceiptReady notifies the user that the receipt is ready.
func (s *NotificationService) NotifyReceiptReady(ctx context.Context, receipt *domain.Receipt) error {
	return s.send(ctx, Notification{
		Type:        NotificationReceiptReady,
		RecipientID: receipt.UserID,
		Title:       "Receipt Ready",
		Message:     fmt.Sprintf("Your receipt for $%.2f is ready", receipt.Fare.TotalCost),
		Data: map[string]interface{}{
			"receipt_id": receipt.ID,
			"loan_id":    receipt.LoanID,
			"total":      receipt.Fare.TotalCost,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification (log-backed stub).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%d, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
