package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ecomove/internal/config"
	"ecomove/internal/domain"
	"ecomove/internal/repository"
	"ecomove/internal/service"
)

// ──────────────────────────────────────────────
// LOAN START
// ──────────────────────────────────────────────

// loanFixture wires a LoanService against the in-memory mocks.
type loanFixture struct {
	users      *MockUserRepository
	stations   *MockStationRepository
	transports *MockTransportRepository
	loans      *MockLoanRepository
	payments   *MockPaymentRepository
	lock       *MockLockStore
	txManager  *MockTxManager
	svc        *service.LoanService
}

func newLoanFixture() *loanFixture {
	f := &loanFixture{
		users:      NewMockUserRepository(),
		stations:   NewMockStationRepository(),
		transports: NewMockTransportRepository(),
		loans:      NewMockLoanRepository(),
		payments:   NewMockPaymentRepository(),
		lock:       NewMockLockStore(),
	}
	f.txManager = NewMockTxManager(f.users, f.transports, f.loans)

	cfg := config.DefaultFareConfig()
	notifications := service.NewNotificationService()
	receipts := service.NewReceiptService(notifications)
	paymentService := service.NewPaymentService(f.payments, service.NewMockPSP())

	f.svc = service.NewLoanService(
		f.txManager,
		f.loans,
		f.users,
		f.transports,
		f.stations,
		f.lock,
		service.NewFareCalculator(cfg),
		cfg.MinBatteryPercent,
		paymentService,
		receipts,
		notifications,
	)
	return f
}

// seedRider adds an active user, a station and an available scooter parked
// there, and returns their IDs.
func (f *loanFixture) seedRider() (userID, transportID, stationID int64) {
	user := &domain.User{Name: "Ana", Email: "ana@example.com", Status: domain.UserStatusActive}
	f.users.AddUser(user)

	station := &domain.Station{Name: "Centro", Lat: 4.6097, Lng: -74.0817, MaxCapacity: 20}
	f.stations.AddStation(station)

	transport := &domain.TransportDetail{
		Transport: domain.Transport{
			Code:       "ECO-0001",
			Type:       domain.TransportTypeScooter,
			HourlyRate: 6000,
			Status:     domain.TransportStatusAvailable,
			StationID:  &station.ID,
		},
	}
	f.transports.AddTransport(transport)

	return user.ID, transport.ID, station.ID
}

func TestStartLoan_Success(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	estimated := 45
	loan, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID:           userID,
		TransportID:      transportID,
		OriginStationID:  stationID,
		EstimatedMinutes: &estimated,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loan.ID == 0 {
		t.Error("expected loan to receive an ID")
	}
	if loan.Status != domain.LoanStatusActive {
		t.Errorf("expected status %s, got %s", domain.LoanStatusActive, loan.Status)
	}
	if loan.EstimatedMinutes == nil || *loan.EstimatedMinutes != 45 {
		t.Error("expected estimated minutes to be stored")
	}
	if loan.TotalCost != nil {
		t.Error("expected no cost on a freshly started loan")
	}
	if !loan.EndedAt.IsZero() {
		t.Error("expected no end time on a freshly started loan")
	}

	// The transport was claimed.
	transport := f.transports.GetTransport(transportID)
	if transport.Status != domain.TransportStatusInUse {
		t.Errorf("expected transport status %s, got %s", domain.TransportStatusInUse, transport.Status)
	}

	// The per-user lock was taken and released.
	if f.lock.AcquireCallCount != 1 {
		t.Errorf("expected 1 lock acquisition, got %d", f.lock.AcquireCallCount)
	}
	if f.lock.ReleaseCallCount != 1 {
		t.Errorf("expected 1 lock release, got %d", f.lock.ReleaseCallCount)
	}

	// The write went through the transaction.
	if f.txManager.WithinTxCallCount != 1 {
		t.Errorf("expected 1 transaction, got %d", f.txManager.WithinTxCallCount)
	}
}

func TestStartLoan_InvalidInput(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	ctx := context.Background()

	badMinutes := -5
	cases := []struct {
		name string
		req  service.StartLoanRequest
		want error
	}{
		{"zero user", service.StartLoanRequest{TransportID: 1, OriginStationID: 1}, service.ErrInvalidUserID},
		{"zero transport", service.StartLoanRequest{UserID: 1, OriginStationID: 1}, service.ErrInvalidTransportID},
		{"zero station", service.StartLoanRequest{UserID: 1, TransportID: 1}, service.ErrInvalidStationID},
		{"negative estimate", service.StartLoanRequest{UserID: 1, TransportID: 1, OriginStationID: 1, EstimatedMinutes: &badMinutes}, service.ErrInvalidDuration},
	}

	for _, tc := range cases {
		if _, err := f.svc.StartLoan(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if f.loans.CreateCallCount != 0 {
		t.Error("expected no loan writes for invalid input")
	}
}

func TestStartLoan_UserNotEligible(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	_, transportID, stationID := f.seedRider()

	// Unknown user.
	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID:          999,
		TransportID:     transportID,
		OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrUserNotEligible) {
		t.Errorf("expected ErrUserNotEligible for unknown user, got %v", err)
	}

	// Suspended user.
	suspended := &domain.User{Name: "Luis", Email: "luis@example.com", Status: domain.UserStatusSuspended}
	f.users.AddUser(suspended)

	_, err = f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID:          suspended.ID,
		TransportID:     transportID,
		OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrUserNotEligible) {
		t.Errorf("expected ErrUserNotEligible for suspended user, got %v", err)
	}
}

func TestStartLoan_OnePerUser(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	first, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID:          userID,
		TransportID:     transportID,
		OriginStationID: stationID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A second transport at the same station, so only the open-loan rule
	// can reject the second start.
	second := &domain.TransportDetail{
		Transport: domain.Transport{
			Code:       "ECO-0002",
			Type:       domain.TransportTypeBicycle,
			HourlyRate: 3000,
			Status:     domain.TransportStatusAvailable,
			StationID:  &stationID,
		},
	}
	f.transports.AddTransport(second)

	_, err = f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID:          userID,
		TransportID:     second.ID,
		OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrUserHasActiveLoan) {
		t.Fatalf("expected ErrUserHasActiveLoan, got %v", err)
	}

	// The error carries the blocking loan's ID.
	var active *service.ActiveLoanError
	if !errors.As(err, &active) {
		t.Fatal("expected an ActiveLoanError")
	}
	if active.LoanID != first.ID {
		t.Errorf("expected blocking loan %d, got %d", first.ID, active.LoanID)
	}
}

func TestStartLoan_OpenLoanRuleCoversExtended(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	// An extended loan still counts as open.
	f.loans.AddLoan(&domain.Loan{
		UserID:          userID,
		TransportID:     transportID,
		OriginStationID: stationID,
		StartedAt:       time.Now().Add(-time.Hour),
		Status:          domain.LoanStatusExtended,
	})

	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID:          userID,
		TransportID:     transportID,
		OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrUserHasActiveLoan) {
		t.Errorf("expected ErrUserHasActiveLoan, got %v", err)
	}
}

func TestStartLoan_TransportChecks(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()
	ctx := context.Background()

	// Unknown transport.
	_, err := f.svc.StartLoan(ctx, service.StartLoanRequest{
		UserID: userID, TransportID: 999, OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrTransportNotFound) {
		t.Errorf("expected ErrTransportNotFound, got %v", err)
	}

	// Transport in maintenance.
	f.transports.GetTransport(transportID).Status = domain.TransportStatusMaintenance
	_, err = f.svc.StartLoan(ctx, service.StartLoanRequest{
		UserID: userID, TransportID: transportID, OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrTransportUnavailable) {
		t.Errorf("expected ErrTransportUnavailable, got %v", err)
	}
	f.transports.GetTransport(transportID).Status = domain.TransportStatusAvailable

	// Transport parked at a different station.
	other := &domain.Station{Name: "Norte", MaxCapacity: 10}
	f.stations.AddStation(other)
	_, err = f.svc.StartLoan(ctx, service.StartLoanRequest{
		UserID: userID, TransportID: transportID, OriginStationID: other.ID,
	})
	if !errors.Is(err, service.ErrTransportStationMismatch) {
		t.Errorf("expected ErrTransportStationMismatch, got %v", err)
	}

	// Transport not docked anywhere.
	f.transports.GetTransport(transportID).StationID = nil
	_, err = f.svc.StartLoan(ctx, service.StartLoanRequest{
		UserID: userID, TransportID: transportID, OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrTransportStationMismatch) {
		t.Errorf("expected ErrTransportStationMismatch for undocked transport, got %v", err)
	}

	if f.loans.CreateCallCount != 0 {
		t.Error("expected no loan writes after failed validations")
	}
}

func TestStartLoan_InsufficientBattery(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, _, stationID := f.seedRider()

	lowBattery := &domain.TransportDetail{
		Transport: domain.Transport{
			Code:       "ECO-0003",
			Type:       domain.TransportTypeElectricScooter,
			HourlyRate: 8000,
			Status:     domain.TransportStatusAvailable,
			StationID:  &stationID,
		},
		Electric: &domain.ElectricSpec{BatteryPercent: 10},
	}
	f.transports.AddTransport(lowBattery)

	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID: userID, TransportID: lowBattery.ID, OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrInsufficientBattery) {
		t.Errorf("expected ErrInsufficientBattery, got %v", err)
	}

	// A bicycle has no battery, so the rule never fires for it.
	bike := &domain.TransportDetail{
		Transport: domain.Transport{
			Code:       "ECO-0004",
			Type:       domain.TransportTypeBicycle,
			HourlyRate: 3000,
			Status:     domain.TransportStatusAvailable,
			StationID:  &stationID,
		},
		Bicycle: &domain.BicycleSpec{Gears: 7},
	}
	f.transports.AddTransport(bike)

	if _, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID: userID, TransportID: bike.ID, OriginStationID: stationID,
	}); err != nil {
		t.Errorf("unexpected error for bicycle: %v", err)
	}
}

func TestStartLoan_OriginStationMustExist(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, _, _ := f.seedRider()

	// A transport claiming to sit at a station that has no record.
	ghost := int64(777)
	orphan := &domain.TransportDetail{
		Transport: domain.Transport{
			Code:       "ECO-0005",
			Type:       domain.TransportTypeScooter,
			HourlyRate: 6000,
			Status:     domain.TransportStatusAvailable,
			StationID:  &ghost,
		},
	}
	f.transports.AddTransport(orphan)

	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID: userID, TransportID: orphan.ID, OriginStationID: ghost,
	})
	if !errors.Is(err, service.ErrStationNotFound) {
		t.Errorf("expected ErrStationNotFound, got %v", err)
	}
}

func TestStartLoan_ValidationOrder(t *testing.T) {
	t.Parallel()

	// A user with an open loan requesting an unknown transport: the
	// open-loan rule fires first.
	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	f.loans.AddLoan(&domain.Loan{
		UserID:          userID,
		TransportID:     transportID,
		OriginStationID: stationID,
		StartedAt:       time.Now(),
		Status:          domain.LoanStatusActive,
	})

	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID: userID, TransportID: 999, OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrUserHasActiveLoan) {
		t.Errorf("expected the open-loan rule to fire before the transport lookup, got %v", err)
	}
}

func TestStartLoan_ConcurrentStartRejected(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	// Simulate another request for the same user holding the lock.
	f.lock.Held = true

	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID: userID, TransportID: transportID, OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrConcurrentStart) {
		t.Fatalf("expected ErrConcurrentStart, got %v", err)
	}

	if f.loans.CreateCallCount != 0 {
		t.Error("expected no writes while the lock is held")
	}
	if f.txManager.WithinTxCallCount != 0 {
		t.Error("expected no transaction while the lock is held")
	}
}

func TestStartLoan_ClaimFailureRollsBackLoan(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	// The claim fails inside the transaction; the loan insert must not
	// survive.
	f.transports.ClaimError = errors.New("claim failed")

	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID: userID, TransportID: transportID, OriginStationID: stationID,
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	if open, _ := f.loans.GetOpenByUserID(context.Background(), userID); open != nil {
		t.Error("expected the loan insert to be rolled back")
	}
	if f.transports.GetTransport(transportID).Status != domain.TransportStatusAvailable {
		t.Error("expected the transport to stay available")
	}

	// The lock is released even on failure so the user can retry.
	if f.lock.ReleaseCallCount != 1 {
		t.Errorf("expected the lock to be released, got %d releases", f.lock.ReleaseCallCount)
	}
}

func TestStartLoan_OpenLoanAppearingBeforeTransaction(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	// A competing start commits between the fast-path open-loan check and
	// this request's transaction. The in-transaction re-check behind the
	// user row lock must catch it.
	rival := &domain.Loan{
		UserID:          userID,
		TransportID:     transportID,
		OriginStationID: stationID,
		StartedAt:       time.Now(),
		Status:          domain.LoanStatusActive,
	}
	f.loans.GetOpenByUserIDHook = func(uid int64) {
		f.loans.GetOpenByUserIDHook = nil
		f.loans.AddLoan(rival)
	}

	second := &domain.TransportDetail{
		Transport: domain.Transport{
			Code:       "ECO-0006",
			Type:       domain.TransportTypeScooter,
			HourlyRate: 6000,
			Status:     domain.TransportStatusAvailable,
			StationID:  &stationID,
		},
	}
	f.transports.AddTransport(second)

	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID:          userID,
		TransportID:     second.ID,
		OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrUserHasActiveLoan) {
		t.Fatalf("expected ErrUserHasActiveLoan from the in-transaction re-check, got %v", err)
	}

	var active *service.ActiveLoanError
	if !errors.As(err, &active) || active.LoanID != rival.ID {
		t.Error("expected the error to carry the competing loan's ID")
	}

	// The re-check fired before any write.
	if f.loans.CreateCallCount != 0 {
		t.Errorf("expected no loan insert, got %d", f.loans.CreateCallCount)
	}
	if f.transports.GetTransport(second.ID).Status != domain.TransportStatusAvailable {
		t.Error("expected the second transport to stay available")
	}
	if f.txManager.WithinTxCallCount != 1 {
		t.Errorf("expected the rejection to happen inside the transaction, got %d transactions", f.txManager.WithinTxCallCount)
	}
}

func TestStartLoan_ConcurrentStartsExactlyOneSucceeds(t *testing.T) {
	t.Parallel()

	// No distributed lock here: the transaction alone has to uphold the
	// one-open-loan rule.
	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	second := &domain.TransportDetail{
		Transport: domain.Transport{
			Code:       "ECO-0007",
			Type:       domain.TransportTypeBicycle,
			HourlyRate: 3000,
			Status:     domain.TransportStatusAvailable,
			StationID:  &stationID,
		},
	}
	f.transports.AddTransport(second)

	cfg := config.DefaultFareConfig()
	svc := service.NewLoanService(
		f.txManager,
		f.loans,
		f.users,
		f.transports,
		f.stations,
		nil,
		service.NewFareCalculator(cfg),
		cfg.MinBatteryPercent,
		nil,
		nil,
		nil,
	)

	transportIDs := []int64{transportID, second.ID}
	errs := make([]error, len(transportIDs))

	var wg sync.WaitGroup
	for i, id := range transportIDs {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = svc.StartLoan(context.Background(), service.StartLoanRequest{
				UserID:          userID,
				TransportID:     id,
				OriginStationID: stationID,
			})
		}(i, id)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrUserHasActiveLoan):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one start to succeed, got %d", successes)
	}

	open, _ := f.loans.GetOpenByUserID(context.Background(), userID)
	if open == nil {
		t.Fatal("expected exactly one open loan")
	}

	claimed := 0
	for _, id := range transportIDs {
		if f.transports.GetTransport(id).Status == domain.TransportStatusInUse {
			claimed++
		}
	}
	if claimed != 1 {
		t.Errorf("expected exactly one transport claimed, got %d", claimed)
	}
}

func TestStartLoan_LostRaceInsideTransaction(t *testing.T) {
	t.Parallel()

	f := newLoanFixture()
	userID, transportID, stationID := f.seedRider()

	// A competing request claimed the vehicle between the availability read
	// and the transaction. The guarded claim reports the conflict and the
	// caller sees it as unavailability.
	f.transports.ClaimError = repository.ErrConflict

	_, err := f.svc.StartLoan(context.Background(), service.StartLoanRequest{
		UserID: userID, TransportID: transportID, OriginStationID: stationID,
	})
	if !errors.Is(err, service.ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", err)
	}

	if open, _ := f.loans.GetOpenByUserID(context.Background(), userID); open != nil {
		t.Error("expected the loan insert to be rolled back after the lost race")
	}
}
