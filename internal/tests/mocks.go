package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ecomove/internal/domain"
	"ecomove/internal/redis"
	"ecomove/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*domain.User
	nextID int64

	// Counters for verification
	CreateCallCount   int32
	LockByIDCallCount int32

	// Error injection
	CreateError   error
	GetByIDError  error
	LockByIDError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[int64]*domain.User)}
}

// AddUser adds a user to the mock repository, assigning an ID if needed.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		m.nextID++
		user.ID = m.nextID
	} else if user.ID > m.nextID {
		m.nextID = user.ID
	}
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id int64, status domain.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

func (m *MockUserRepository) LockByID(ctx context.Context, id int64) error {
	atomic.AddInt32(&m.LockByIDCallCount, 1)
	if m.LockByIDError != nil {
		return m.LockByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (m *MockUserRepository) snapshot() map[int64]*domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[int64]*domain.User, len(m.users))
	for id, u := range m.users {
		copy := *u
		snap[id] = &copy
	}
	return snap
}

func (m *MockUserRepository) restore(snap map[int64]*domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = snap
}

// ──────────────────────────────────────────────
// MOCK STATION REPOSITORY
// ──────────────────────────────────────────────

// MockStationRepository is a mock implementation of StationRepository.
type MockStationRepository struct {
	mu       sync.RWMutex
	stations map[int64]*domain.Station
	nextID   int64

	CreateCallCount int32

	CreateError  error
	GetByIDError error
}

// NewMockStationRepository creates a new mock station repository.
func NewMockStationRepository() *MockStationRepository {
	return &MockStationRepository{stations: make(map[int64]*domain.Station)}
}

// AddStation adds a station to the mock repository, assigning an ID if needed.
func (m *MockStationRepository) AddStation(station *domain.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if station.ID == 0 {
		m.nextID++
		station.ID = m.nextID
	} else if station.ID > m.nextID {
		m.nextID = station.ID
	}
	m.stations[station.ID] = station
}

func (m *MockStationRepository) Create(ctx context.Context, station *domain.Station) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	station.ID = m.nextID
	m.stations[station.ID] = station
	return nil
}

func (m *MockStationRepository) GetByID(ctx context.Context, id int64) (*domain.Station, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	station, ok := m.stations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *station
	return &copy, nil
}

func (m *MockStationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Station, 0, len(m.stations))
	for _, s := range m.stations {
		copy := *s
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK TRANSPORT REPOSITORY
// ──────────────────────────────────────────────

// MockTransportRepository is a mock implementation of TransportRepository.
type MockTransportRepository struct {
	mu         sync.RWMutex
	transports map[int64]*domain.TransportDetail
	nextID     int64

	// Counters for verification
	ClaimCallCount         int32
	UpdateStatusCallCount  int32
	UpdateStationCallCount int32

	// Error injection
	ClaimError         error
	UpdateStatusError  error
	UpdateStationError error
}

// NewMockTransportRepository creates a new mock transport repository.
func NewMockTransportRepository() *MockTransportRepository {
	return &MockTransportRepository{transports: make(map[int64]*domain.TransportDetail)}
}

// AddTransport adds a transport to the mock repository, assigning an ID if
// needed.
func (m *MockTransportRepository) AddTransport(detail *domain.TransportDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if detail.ID == 0 {
		m.nextID++
		detail.ID = m.nextID
	} else if detail.ID > m.nextID {
		m.nextID = detail.ID
	}
	m.transports[detail.ID] = detail
}

func (m *MockTransportRepository) Create(ctx context.Context, detail *domain.TransportDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	detail.ID = m.nextID
	m.transports[detail.ID] = detail
	return nil
}

func (m *MockTransportRepository) GetByID(ctx context.Context, id int64) (*domain.Transport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	detail, ok := m.transports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := detail.Transport
	return &copy, nil
}

func (m *MockTransportRepository) GetDetailByID(ctx context.Context, id int64) (*domain.TransportDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	detail, ok := m.transports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *detail
	if detail.Electric != nil {
		spec := *detail.Electric
		copy.Electric = &spec
	}
	if detail.Bicycle != nil {
		spec := *detail.Bicycle
		copy.Bicycle = &spec
	}
	return &copy, nil
}

func (m *MockTransportRepository) GetAll(ctx context.Context) ([]*domain.Transport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transport, 0, len(m.transports))
	for _, d := range m.transports {
		copy := d.Transport
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockTransportRepository) UpdateStatus(ctx context.Context, id int64, status domain.TransportStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.transports[id]
	if !ok {
		return repository.ErrNotFound
	}
	detail.Status = status
	return nil
}

func (m *MockTransportRepository) UpdateStation(ctx context.Context, id int64, stationID *int64) error {
	atomic.AddInt32(&m.UpdateStationCallCount, 1)
	if m.UpdateStationError != nil {
		return m.UpdateStationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.transports[id]
	if !ok {
		return repository.ErrNotFound
	}
	detail.StationID = stationID
	return nil
}

func (m *MockTransportRepository) Claim(ctx context.Context, id int64) error {
	atomic.AddInt32(&m.ClaimCallCount, 1)
	if m.ClaimError != nil {
		return m.ClaimError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.transports[id]
	if !ok {
		return repository.ErrNotFound
	}
	if detail.Status != domain.TransportStatusAvailable {
		return repository.ErrConflict
	}
	detail.Status = domain.TransportStatusInUse
	detail.StationID = nil
	return nil
}

// GetTransport returns a transport for test assertions.
func (m *MockTransportRepository) GetTransport(id int64) *domain.TransportDetail {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transports[id]
}

func (m *MockTransportRepository) snapshot() map[int64]*domain.TransportDetail {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[int64]*domain.TransportDetail, len(m.transports))
	for id, d := range m.transports {
		copy := *d
		if d.Electric != nil {
			spec := *d.Electric
			copy.Electric = &spec
		}
		if d.Bicycle != nil {
			spec := *d.Bicycle
			copy.Bicycle = &spec
		}
		snap[id] = &copy
	}
	return snap
}

func (m *MockTransportRepository) restore(snap map[int64]*domain.TransportDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transports = snap
}

// ──────────────────────────────────────────────
// MOCK LOAN REPOSITORY
// ──────────────────────────────────────────────

// MockLoanRepository is a mock implementation of LoanRepository.
type MockLoanRepository struct {
	mu     sync.RWMutex
	loans  map[int64]*domain.Loan
	nextID int64

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error

	// Race simulation: invoked after the corresponding read returns, with
	// no lock held, so a test can interleave a competing write between a
	// gating read and the write it gates.
	GetByIDHook         func(id int64)
	GetOpenByUserIDHook func(userID int64)
}

// NewMockLoanRepository creates a new mock loan repository.
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{loans: make(map[int64]*domain.Loan)}
}

// AddLoan adds a loan to the mock repository, assigning an ID if needed.
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loan.ID == 0 {
		m.nextID++
		loan.ID = m.nextID
	} else if loan.ID > m.nextID {
		m.nextID = loan.ID
	}
	m.loans[loan.ID] = loan
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	loan.ID = m.nextID
	copy := *loan
	m.loans[loan.ID] = &copy
	return nil
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	m.mu.RLock()
	loan, ok := m.loans[id]
	if !ok {
		m.mu.RUnlock()
		return nil, repository.ErrNotFound
	}
	copy := *loan
	m.mu.RUnlock()
	if m.GetByIDHook != nil {
		m.GetByIDHook(id)
	}
	return &copy, nil
}

func (m *MockLoanRepository) GetAll(ctx context.Context) ([]*domain.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Loan, 0, len(m.loans))
	for _, l := range m.loans {
		copy := *l
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan, from domain.LoanStatus) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.loans[loan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != from {
		return repository.ErrConflict
	}
	copy := *loan
	m.loans[loan.ID] = &copy
	return nil
}

func (m *MockLoanRepository) GetOpenByUserID(ctx context.Context, userID int64) (*domain.Loan, error) {
	m.mu.RLock()
	var open *domain.Loan
	for _, l := range m.loans {
		if l.UserID == userID && l.Status.IsOpen() {
			copy := *l
			open = &copy
			break
		}
	}
	m.mu.RUnlock()
	if m.GetOpenByUserIDHook != nil {
		m.GetOpenByUserIDHook(userID)
	}
	return open, nil
}

func (m *MockLoanRepository) GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]*domain.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.Loan
	for _, l := range m.loans {
		if l.UserID == userID {
			copy := *l
			all = append(all, &copy)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockLoanRepository) GetUserStats(ctx context.Context, userID int64) (*domain.UserLoanStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats domain.UserLoanStats
	for _, l := range m.loans {
		if l.UserID != userID {
			continue
		}
		stats.TotalLoans++
		switch l.Status {
		case domain.LoanStatusCompleted:
			stats.CompletedLoans++
		case domain.LoanStatusCancelled:
			stats.CancelledLoans++
		}
		if l.TotalCost != nil {
			stats.TotalSpent += *l.TotalCost
		}
	}
	return &stats, nil
}

func (m *MockLoanRepository) CountByDay(ctx context.Context, from, to time.Time) ([]domain.DailyLoanCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byDay := make(map[time.Time]int)
	for _, l := range m.loans {
		if l.StartedAt.Before(from) || !l.StartedAt.Before(to) {
			continue
		}
		day := l.StartedAt.Truncate(24 * time.Hour)
		byDay[day]++
	}
	days := make([]domain.DailyLoanCount, 0, len(byDay))
	for day, count := range byDay {
		days = append(days, domain.DailyLoanCount{Day: day, Count: count})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day.Before(days[j].Day) })
	return days, nil
}

func (m *MockLoanRepository) TopTransports(ctx context.Context, from, to time.Time, limit int) ([]domain.TransportUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[int64]int)
	for _, l := range m.loans {
		if l.StartedAt.Before(from) || !l.StartedAt.Before(to) {
			continue
		}
		counts[l.TransportID]++
	}
	usage := make([]domain.TransportUsage, 0, len(counts))
	for id, count := range counts {
		usage = append(usage, domain.TransportUsage{TransportID: id, LoanCount: count})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].LoanCount != usage[j].LoanCount {
			return usage[i].LoanCount > usage[j].LoanCount
		}
		return usage[i].TransportID < usage[j].TransportID
	})
	if limit < len(usage) {
		usage = usage[:limit]
	}
	return usage, nil
}

func (m *MockLoanRepository) TopStations(ctx context.Context, from, to time.Time, limit int) ([]domain.StationActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	activity := make(map[int64]*domain.StationActivity)
	record := func(stationID int64) *domain.StationActivity {
		a, ok := activity[stationID]
		if !ok {
			a = &domain.StationActivity{StationID: stationID}
			activity[stationID] = a
		}
		return a
	}
	for _, l := range m.loans {
		if l.StartedAt.Before(from) || !l.StartedAt.Before(to) {
			continue
		}
		record(l.OriginStationID).Departures++
		if l.DestinationStationID != nil {
			record(*l.DestinationStationID).Arrivals++
		}
	}
	result := make([]domain.StationActivity, 0, len(activity))
	for _, a := range activity {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].Departures+result[i].Arrivals, result[j].Departures+result[j].Arrivals
		if ti != tj {
			return ti > tj
		}
		return result[i].StationID < result[j].StationID
	})
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockLoanRepository) PeriodTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int
	var revenue float64
	for _, l := range m.loans {
		if l.StartedAt.Before(from) || !l.StartedAt.Before(to) {
			continue
		}
		count++
		if l.TotalCost != nil {
			revenue += *l.TotalCost
		}
	}
	return count, revenue, nil
}

// GetLoan returns a loan for test assertions.
func (m *MockLoanRepository) GetLoan(id int64) *domain.Loan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loans[id]
}

func (m *MockLoanRepository) snapshot() map[int64]*domain.Loan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[int64]*domain.Loan, len(m.loans))
	for id, l := range m.loans {
		copy := *l
		snap[id] = &copy
	}
	return snap
}

func (m *MockLoanRepository) restore(snap map[int64]*domain.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans = snap
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateCallCount int32

	CreateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[int64]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// When true, AcquireUserLoanLock reports the lock as already held.
	Held bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[int64]bool)}
}

func (m *MockLockStore) AcquireUserLoanLock(ctx context.Context, userID int64, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Held || m.locks[userID] {
		return false, nil
	}
	m.locks[userID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseUserLoanLock(ctx context.Context, userID int64) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, userID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory implementation of LocationStoreInterface
// using a flat-earth distance approximation, close enough for tests.
type MockLocationStore struct {
	mu        sync.RWMutex
	positions map[int64][2]float64 // lat, lng

	AddError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{positions: make(map[int64][2]float64)}
}

func (m *MockLocationStore) AddStation(ctx context.Context, stationID int64, lat, lng float64) error {
	if m.AddError != nil {
		return m.AddError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[stationID] = [2]float64{lat, lng}
	return nil
}

func (m *MockLocationStore) FindNearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]redis.StationLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []redis.StationLocation
	for id, pos := range m.positions {
		distKm := approxDistanceKm(lat, lng, pos[0], pos[1])
		if distKm <= radiusKm {
			result = append(result, redis.StationLocation{StationID: id, Lat: pos[0], Lng: pos[1], DistKm: distKm})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DistKm < result[j].DistKm })
	return result, nil
}

func (m *MockLocationStore) RemoveStation(ctx context.Context, stationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, stationID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION MANAGER
// ──────────────────────────────────────────────

// MockTxManager runs units of work against the mock repositories. On error
// it restores the repositories to their pre-transaction state, mirroring a
// database rollback. Transactions are serialized against each other, like
// the row locks they stand in for.
type MockTxManager struct {
	Users      *MockUserRepository
	Transports *MockTransportRepository
	Loans      *MockLoanRepository

	txMu sync.Mutex

	WithinTxCallCount int32

	// Error injection: returned before fn runs.
	BeginError error
}

// NewMockTxManager creates a transaction manager over the given mocks.
func NewMockTxManager(users *MockUserRepository, transports *MockTransportRepository, loans *MockLoanRepository) *MockTxManager {
	return &MockTxManager{Users: users, Transports: transports, Loans: loans}
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	userSnap := m.Users.snapshot()
	transportSnap := m.Transports.snapshot()
	loanSnap := m.Loans.snapshot()

	err := fn(repository.TxRepos{
		Users:      m.Users,
		Transports: m.Transports,
		Loans:      m.Loans,
	})
	if err != nil {
		m.Users.restore(userSnap)
		m.Transports.restore(transportSnap)
		m.Loans.restore(loanSnap)
		return err
	}
	return nil
}

func approxDistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	const kmPerDegree = 111.32
	dLat := (lat2 - lat1) * kmPerDegree
	dLng := (lng2 - lng1) * kmPerDegree
	if dLat < 0 {
		dLat = -dLat
	}
	if dLng < 0 {
		dLng = -dLng
	}
	// Manhattan-ish bound is fine for the radii used in tests.
	return dLat + dLng
}
