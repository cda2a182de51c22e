package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecomove/internal/domain"
	"ecomove/internal/service"
)

// ──────────────────────────────────────────────
// LOAN COMPLETION, CANCELLATION AND EXTENSION
// ──────────────────────────────────────────────

// startedAgo returns a start time slightly under the given number of
// minutes ago, so the ceil-to-minutes bill lands exactly on minutes.
func startedAgo(minutes int) time.Time {
	return time.Now().Add(-time.Duration(minutes) * time.Minute).Add(2 * time.Second)
}

// seedActiveLoan starts a loan through the service so the repositories are
// in a consistent claimed state, then rewinds its start time.
func (f *loanFixture) seedActiveLoan(t *testing.T, minutesAgo int) (loanID, userID, transportID, stationID int64) {
	t.Helper()

	userID, transportID, stationID = f.seedRider()
	loan, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID:          userID,
		TransportID:     transportID,
		OriginStationID: stationID,
	})
	if err != nil {
		t.Fatalf("unexpected error starting loan: %v", err)
	}

	stored := f.loans.GetLoan(loan.ID)
	stored.StartedAt = startedAgo(minutesAgo)

	return loan.ID, userID, transportID, stationID
}

func TestCompleteLoan_Success(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, transportID, _ := f.seedActiveLoan(t, 45)

	dest := &domain.Station{Name: "Norte", Lat: 4.66, Lng: -74.05, MaxCapacity: 15}
	f.stations.AddStation(dest)

	result, err := f.svc.CompleteLoan(context.Background(), service.CompleteLoanRequest{
		LoanID:               loanID,
		DestinationStationID: dest.ID,
		PaymentMethod:        domain.PaymentMethodCreditCard,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loan := result.Loan
	if loan.Status != domain.LoanStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.LoanStatusCompleted, loan.Status)
	}
	if loan.EndedAt.IsZero() {
		t.Error("expected an end time")
	}
	if loan.DestinationStationID == nil || *loan.DestinationStationID != dest.ID {
		t.Error("expected the destination station to be recorded")
	}

	// 45 billed minutes on a plain scooter at 6000/h.
	if result.Fare.DurationMinutes != 45 {
		t.Errorf("expected 45 billed minutes, got %d", result.Fare.DurationMinutes)
	}
	if !almostEqual(result.Fare.TotalCost, 5355) {
		t.Errorf("expected total 5355.00, got %.2f", result.Fare.TotalCost)
	}
	if loan.TotalCost == nil || !almostEqual(*loan.TotalCost, result.Fare.TotalCost) {
		t.Error("expected the loan cost to match the fare total")
	}

	// The transport is back in service at the destination.
	transport := f.transports.GetTransport(transportID)
	if transport.Status != domain.TransportStatusAvailable {
		t.Errorf("expected transport status %s, got %s", domain.TransportStatusAvailable, transport.Status)
	}
	if transport.StationID == nil || *transport.StationID != dest.ID {
		t.Error("expected the transport to be docked at the destination")
	}

	// Payment and receipt were produced after the commit.
	if result.Payment == nil {
		t.Fatal("expected a payment")
	}
	if result.Payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected payment status %s, got %s", domain.PaymentStatusSuccess, result.Payment.Status)
	}
	if !almostEqual(result.Payment.Amount, result.Fare.TotalCost) {
		t.Error("expected the payment amount to match the fare total")
	}
	if result.Receipt == nil {
		t.Fatal("expected a receipt")
	}
}

func TestCompleteLoan_OnlyActiveCompletes(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, _, stationID := f.seedActiveLoan(t, 30)
	ctx := context.Background()

	// Move the loan to extended: completion is rejected from there, the
	// loan has to be handled operationally.
	if _, err := f.svc.ExtendLoan(ctx, service.ExtendLoanRequest{LoanID: loanID, AdditionalMinutes: 30}); err != nil {
		t.Fatalf("unexpected error extending: %v", err)
	}

	_, err := f.svc.CompleteLoan(ctx, service.CompleteLoanRequest{
		LoanID:               loanID,
		DestinationStationID: stationID,
		PaymentMethod:        domain.PaymentMethodCash,
	})
	if !errors.Is(err, service.ErrLoanNotActive) {
		t.Errorf("expected ErrLoanNotActive for an extended loan, got %v", err)
	}

	// A completed loan stays completed.
	f2 := newLoanFixture()
	loanID2, _, _, stationID2 := f2.seedActiveLoan(t, 30)
	if _, err := f2.svc.CompleteLoan(ctx, service.CompleteLoanRequest{
		LoanID:               loanID2,
		DestinationStationID: stationID2,
		PaymentMethod:        domain.PaymentMethodCash,
	}); err != nil {
		t.Fatalf("unexpected error completing: %v", err)
	}

	_, err = f2.svc.CompleteLoan(ctx, service.CompleteLoanRequest{
		LoanID:               loanID2,
		DestinationStationID: stationID2,
		PaymentMethod:        domain.PaymentMethodCash,
	})
	if !errors.Is(err, service.ErrLoanNotActive) {
		t.Errorf("expected ErrLoanNotActive for a completed loan, got %v", err)
	}
}

func TestCompleteLoan_Validation(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, _, stationID := f.seedActiveLoan(t, 30)
	ctx := context.Background()

	// Unknown loan.
	if _, err := f.svc.CompleteLoan(ctx, service.CompleteLoanRequest{
		LoanID: 999, DestinationStationID: stationID, PaymentMethod: domain.PaymentMethodCash,
	}); !errors.Is(err, service.ErrLoanNotFound) {
		t.Errorf("expected ErrLoanNotFound, got %v", err)
	}

	// Unknown destination.
	if _, err := f.svc.CompleteLoan(ctx, service.CompleteLoanRequest{
		LoanID: loanID, DestinationStationID: 999, PaymentMethod: domain.PaymentMethodCash,
	}); !errors.Is(err, service.ErrStationNotFound) {
		t.Errorf("expected ErrStationNotFound, got %v", err)
	}

	// Bad payment method.
	if _, err := f.svc.CompleteLoan(ctx, service.CompleteLoanRequest{
		LoanID: loanID, DestinationStationID: stationID, PaymentMethod: "bitcoin",
	}); !errors.Is(err, service.ErrInvalidPaymentMethod) {
		t.Errorf("expected ErrInvalidPaymentMethod, got %v", err)
	}

	// The loan is untouched by the failed attempts.
	if f.loans.GetLoan(loanID).Status != domain.LoanStatusActive {
		t.Error("expected the loan to remain active")
	}
}

func TestCompleteLoan_RollbackOnTransportFailure(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, transportID, stationID := f.seedActiveLoan(t, 30)

	f.transports.UpdateStatusError = errors.New("write failed")

	_, err := f.svc.CompleteLoan(context.Background(), service.CompleteLoanRequest{
		LoanID:               loanID,
		DestinationStationID: stationID,
		PaymentMethod:        domain.PaymentMethodCash,
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	// Both writes were rolled back together.
	if f.loans.GetLoan(loanID).Status != domain.LoanStatusActive {
		t.Error("expected the loan update to be rolled back")
	}
	if f.transports.GetTransport(transportID).Status != domain.TransportStatusInUse {
		t.Error("expected the transport to stay in use")
	}

	// No payment was attempted for the failed completion.
	if f.payments.CreateCallCount != 0 {
		t.Error("expected no payment after a rolled-back completion")
	}
}

func TestCancelLoan_Success(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, userID, transportID, _ := f.seedActiveLoan(t, 10)

	loan, err := f.svc.CancelLoan(context.Background(), service.CancelLoanRequest{
		LoanID: loanID,
		Reason: "flat tire",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loan.Status != domain.LoanStatusCancelled {
		t.Errorf("expected status %s, got %s", domain.LoanStatusCancelled, loan.Status)
	}
	if loan.EndedAt.IsZero() {
		t.Error("expected an end time")
	}
	if loan.CancelReason != "flat tire" {
		t.Errorf("expected the reason to be recorded, got %q", loan.CancelReason)
	}

	// No charge on cancellation.
	if loan.TotalCost != nil {
		t.Error("expected no cost on a cancelled loan")
	}
	if f.payments.CreateCallCount != 0 {
		t.Error("expected no payment for a cancelled loan")
	}

	// The transport is freed where it stands; its station does not change.
	transport := f.transports.GetTransport(transportID)
	if transport.Status != domain.TransportStatusAvailable {
		t.Errorf("expected transport status %s, got %s", domain.TransportStatusAvailable, transport.Status)
	}
	if transport.StationID != nil {
		t.Error("expected the transport to stay undocked after cancellation mid-ride")
	}

	// The user can rent again.
	if open, _ := f.loans.GetOpenByUserID(context.Background(), userID); open != nil {
		t.Error("expected the user to have no open loan after cancelling")
	}
}

func TestCancelLoan_OnlyActive(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, _, _ := f.seedActiveLoan(t, 10)
	ctx := context.Background()

	// Extended loans cannot be cancelled.
	if _, err := f.svc.ExtendLoan(ctx, service.ExtendLoanRequest{LoanID: loanID, AdditionalMinutes: 15}); err != nil {
		t.Fatalf("unexpected error extending: %v", err)
	}
	_, err := f.svc.CancelLoan(ctx, service.CancelLoanRequest{LoanID: loanID})
	if !errors.Is(err, service.ErrOnlyActiveCancellable) {
		t.Errorf("expected ErrOnlyActiveCancellable for an extended loan, got %v", err)
	}

	// Cancelled loans cannot be cancelled again.
	f2 := newLoanFixture()
	loanID2, _, _, _ := f2.seedActiveLoan(t, 10)
	if _, err := f2.svc.CancelLoan(ctx, service.CancelLoanRequest{LoanID: loanID2}); err != nil {
		t.Fatalf("unexpected error cancelling: %v", err)
	}
	_, err = f2.svc.CancelLoan(ctx, service.CancelLoanRequest{LoanID: loanID2})
	if !errors.Is(err, service.ErrOnlyActiveCancellable) {
		t.Errorf("expected ErrOnlyActiveCancellable for a cancelled loan, got %v", err)
	}

	// Unknown loan.
	if _, err := f.svc.CancelLoan(ctx, service.CancelLoanRequest{LoanID: 999}); !errors.Is(err, service.ErrLoanNotFound) {
		t.Errorf("expected ErrLoanNotFound, got %v", err)
	}
}

func TestExtendLoan_Success(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, transportID, _ := f.seedActiveLoan(t, 30)

	result, err := f.svc.ExtendLoan(context.Background(), service.ExtendLoanRequest{
		LoanID:            loanID,
		AdditionalMinutes: 30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 30 extra minutes at 6000/h, flat.
	if !almostEqual(result.AdditionalCost, 3000) {
		t.Errorf("expected additional cost 3000.00, got %.2f", result.AdditionalCost)
	}
	if result.Loan.Status != domain.LoanStatusExtended {
		t.Errorf("expected status %s, got %s", domain.LoanStatusExtended, result.Loan.Status)
	}
	if result.Loan.TotalCost == nil || !almostEqual(*result.Loan.TotalCost, 3000) {
		t.Error("expected the extension cost to accumulate on the loan")
	}
	if !result.Loan.EndedAt.IsZero() {
		t.Error("expected the loan to stay open")
	}

	// The vehicle stays out with the rider.
	if f.transports.GetTransport(transportID).Status != domain.TransportStatusInUse {
		t.Error("expected the transport to remain in use")
	}

	// A second extension is rejected: the loan is no longer active.
	_, err = f.svc.ExtendLoan(context.Background(), service.ExtendLoanRequest{
		LoanID:            loanID,
		AdditionalMinutes: 15,
	})
	if !errors.Is(err, service.ErrLoanNotActive) {
		t.Errorf("expected ErrLoanNotActive on a second extension, got %v", err)
	}
}

func TestExtendLoan_Validation(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, _, _ := f.seedActiveLoan(t, 10)
	ctx := context.Background()

	if _, err := f.svc.ExtendLoan(ctx, service.ExtendLoanRequest{LoanID: loanID, AdditionalMinutes: 0}); !errors.Is(err, service.ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration for zero minutes, got %v", err)
	}
	if _, err := f.svc.ExtendLoan(ctx, service.ExtendLoanRequest{LoanID: loanID, AdditionalMinutes: -10}); !errors.Is(err, service.ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration for negative minutes, got %v", err)
	}
	if _, err := f.svc.ExtendLoan(ctx, service.ExtendLoanRequest{LoanID: 999, AdditionalMinutes: 10}); !errors.Is(err, service.ErrLoanNotFound) {
		t.Errorf("expected ErrLoanNotFound, got %v", err)
	}
}

func TestCompleteLoan_StaleReadCannotReopenTerminalLoan(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, _, _ := f.seedActiveLoan(t, 45)

	rival := &domain.Station{Name: "Sur", MaxCapacity: 10}
	f.stations.AddStation(rival)
	late := &domain.Station{Name: "Oeste", MaxCapacity: 10}
	f.stations.AddStation(late)

	// A competing completion commits right after this request's gating
	// read: the stored row flips to completed before the transaction runs.
	f.loans.GetByIDHook = func(id int64) {
		f.loans.GetByIDHook = nil
		stored := f.loans.GetLoan(id)
		stored.Status = domain.LoanStatusCompleted
		stored.DestinationStationID = &rival.ID
		stored.PaymentMethod = domain.PaymentMethodCash
		stored.EndedAt = time.Now()
	}

	_, err := f.svc.CompleteLoan(context.Background(), service.CompleteLoanRequest{
		LoanID:               loanID,
		DestinationStationID: late.ID,
		PaymentMethod:        domain.PaymentMethodCreditCard,
	})
	if !errors.Is(err, service.ErrLoanNotActive) {
		t.Fatalf("expected ErrLoanNotActive for the late completion, got %v", err)
	}

	// The terminal row keeps the winner's destination and method.
	stored := f.loans.GetLoan(loanID)
	if stored.DestinationStationID == nil || *stored.DestinationStationID != rival.ID {
		t.Error("expected the winning completion's destination to survive")
	}
	if stored.PaymentMethod != domain.PaymentMethodCash {
		t.Error("expected the winning completion's payment method to survive")
	}

	// The loser produced no second payment.
	if f.payments.CreateCallCount != 0 {
		t.Error("expected no payment from the rejected completion")
	}
}

func TestCancelLoan_StaleReadCannotCancelTerminalLoan(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, _, stationID := f.seedActiveLoan(t, 10)

	// A completion commits between the cancel's gating read and its
	// transaction.
	f.loans.GetByIDHook = func(id int64) {
		f.loans.GetByIDHook = nil
		stored := f.loans.GetLoan(id)
		stored.Status = domain.LoanStatusCompleted
		stored.DestinationStationID = &stationID
		stored.EndedAt = time.Now()
	}

	_, err := f.svc.CancelLoan(context.Background(), service.CancelLoanRequest{
		LoanID: loanID,
		Reason: "changed plans",
	})
	if !errors.Is(err, service.ErrOnlyActiveCancellable) {
		t.Fatalf("expected ErrOnlyActiveCancellable for the late cancel, got %v", err)
	}

	stored := f.loans.GetLoan(loanID)
	if stored.Status != domain.LoanStatusCompleted {
		t.Errorf("expected the loan to stay completed, got %s", stored.Status)
	}
	if stored.CancelReason != "" {
		t.Error("expected no cancel reason on the completed loan")
	}
}

func TestExtendLoan_StaleReadCannotExtendTerminalLoan(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, _, _ := f.seedActiveLoan(t, 30)

	// A cancellation commits between the extension's gating read and its
	// write.
	f.loans.GetByIDHook = func(id int64) {
		f.loans.GetByIDHook = nil
		stored := f.loans.GetLoan(id)
		stored.Status = domain.LoanStatusCancelled
		stored.EndedAt = time.Now()
	}

	_, err := f.svc.ExtendLoan(context.Background(), service.ExtendLoanRequest{
		LoanID:            loanID,
		AdditionalMinutes: 30,
	})
	if !errors.Is(err, service.ErrLoanNotActive) {
		t.Fatalf("expected ErrLoanNotActive for the late extension, got %v", err)
	}

	stored := f.loans.GetLoan(loanID)
	if stored.Status != domain.LoanStatusCancelled {
		t.Errorf("expected the loan to stay cancelled, got %s", stored.Status)
	}
	if stored.TotalCost != nil {
		t.Error("expected no cost added to the cancelled loan")
	}
}

func TestCompleteLoan_AcceptsHyphenatedPaymentMethod(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, _, _, stationID := f.seedActiveLoan(t, 20)

	result, err := f.svc.CompleteLoan(context.Background(), service.CompleteLoanRequest{
		LoanID:               loanID,
		DestinationStationID: stationID,
		PaymentMethod:        "credit-card",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Loan.PaymentMethod != domain.PaymentMethodCreditCard {
		t.Errorf("expected the hyphenated spelling to normalize to %s, got %s",
			domain.PaymentMethodCreditCard, result.Loan.PaymentMethod)
	}
	if f.loans.GetLoan(loanID).PaymentMethod != domain.PaymentMethodCreditCard {
		t.Error("expected the normalized method to be persisted")
	}
}

func TestCancelThenRestart(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	loanID, userID, transportID, stationID := f.seedActiveLoan(t, 5)
	ctx := context.Background()

	if _, err := f.svc.CancelLoan(ctx, service.CancelLoanRequest{LoanID: loanID, Reason: "changed plans"}); err != nil {
		t.Fatalf("unexpected error cancelling: %v", err)
	}

	// Re-dock the vehicle; a mid-ride cancel leaves it undocked.
	if err := f.transports.UpdateStation(ctx, transportID, &stationID); err != nil {
		t.Fatalf("unexpected error re-docking: %v", err)
	}

	loan, err := f.svc.StartLoan(ctx, service.StartLoanRequest{
		UserID:          userID,
		TransportID:     transportID,
		OriginStationID: stationID,
	})
	if err != nil {
		t.Fatalf("expected a fresh start after cancellation, got %v", err)
	}
	if loan.ID == loanID {
		t.Error("expected a new loan record")
	}
}
