package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"rideid/internal/domain"
	"rideid/internal/provider"
	"rideid/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK IDENTITY REPOSITORY
// ──────────────────────────────────────────────

// MockIdentityRepository is a mock implementation of IdentityRepository.
type MockIdentityRepository struct {
	mu         sync.RWMutex
	identities map[string]*domain.Identity

	// Counters for verification
	CreateCallCount             int32
	ConsumePlaceholderCallCount int32

	// Error injection
	CreateError             error
	UpdateError             error
	ConsumePlaceholderError error
}

// NewMockIdentityRepository creates a new mock identity repository.
func NewMockIdentityRepository() *MockIdentityRepository {
	return &MockIdentityRepository{
		identities: make(map[string]*domain.Identity),
	}
}

// AddIdentity adds an identity to the mock repository.
func (m *MockIdentityRepository) AddIdentity(identity *domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[identity.ID] = identity
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *identity
	m.identities[identity.ID] = &copy
	return nil
}

func (m *MockIdentityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	identity, ok := m.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *identity
	return &copy, nil
}

func (m *MockIdentityRepository) GetByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, i := range m.identities {
		if i.Phone == phone {
			copy := *i
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockIdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[identity.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *identity
	m.identities[identity.ID] = &copy
	return nil
}

func (m *MockIdentityRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return repository.ErrNotFound
	}
	identity.Status = status
	return nil
}

func (m *MockIdentityRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.identities, id)
	return nil
}

// ConsumePlaceholder mirrors the store's conditional semantics: the whole
// read-copy-delete runs under one lock, so racing calls serialize and the
// loser observes ErrNotFound.
func (m *MockIdentityRepository) ConsumePlaceholder(ctx context.Context, tempUserID, subjectID string) (*domain.Identity, error) {
	atomic.AddInt32(&m.ConsumePlaceholderCallCount, 1)
	if m.ConsumePlaceholderError != nil {
		return nil, m.ConsumePlaceholderError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	placeholder, ok := m.identities[tempUserID]
	if !ok || !placeholder.PendingPhoneVerification {
		return nil, repository.ErrNotFound
	}

	linked := *placeholder
	linked.ID = subjectID
	linked.AuthUID = subjectID
	linked.PendingPhoneVerification = false
	linked.UpdatedAt = time.Now()

	m.identities[subjectID] = &linked
	delete(m.identities, tempUserID)

	copy := linked
	return &copy, nil
}

// GetIdentity returns the identity by ID (for test assertions).
func (m *MockIdentityRepository) GetIdentity(id string) *domain.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identities[id]
}

// CountIdentities returns the number of identity records.
func (m *MockIdentityRepository) CountIdentities() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities)
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount      int32
	SetAuthLinkCallCount int32

	// Error injection
	CreateError      error
	SetAuthLinkError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Phone == phone {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockDriverRepository) SetAuthLink(ctx context.Context, id string, authUID string) error {
	atomic.AddInt32(&m.SetAuthLinkCallCount, 1)
	if m.SetAuthLinkError != nil {
		return m.SetAuthLinkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.AuthUID = authUID
	driver.TempUserID = ""
	return nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// GetDriver returns driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK PHONE VERIFIER
// ──────────────────────────────────────────────

// MockVerifier is a mock implementation of provider.PhoneVerifier.
type MockVerifier struct {
	mu sync.Mutex

	// AcceptCode is the one-time code ConfirmChallenge accepts.
	AcceptCode string
	// SubjectID is returned for an accepted code.
	SubjectID string

	// Counters
	IssueCallCount   int32
	ConfirmCallCount int32

	// Error injection
	IssueError   error
	ConfirmError error

	challenges int
}

// NewMockVerifier creates a new mock verifier.
func NewMockVerifier(acceptCode, subjectID string) *MockVerifier {
	return &MockVerifier{AcceptCode: acceptCode, SubjectID: subjectID}
}

func (m *MockVerifier) IssueChallenge(ctx context.Context, phone, botCheckToken string) (string, error) {
	atomic.AddInt32(&m.IssueCallCount, 1)
	if m.IssueError != nil {
		return "", m.IssueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges++
	return fmt.Sprintf("challenge-%d", m.challenges), nil
}

func (m *MockVerifier) ConfirmChallenge(ctx context.Context, challengeRef, code string) (string, error) {
	atomic.AddInt32(&m.ConfirmCallCount, 1)
	if m.ConfirmError != nil {
		return "", m.ConfirmError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if code != m.AcceptCode {
		return "", provider.ErrInvalidCode
	}
	return m.SubjectID, nil
}

// ──────────────────────────────────────────────
// MOCK BOT CHECK
// ──────────────────────────────────────────────

// MockBotCheck is a mock implementation of provider.BotCheck.
type MockBotCheck struct {
	TokenError error
}

// NewMockBotCheck creates a new mock bot check.
func NewMockBotCheck() *MockBotCheck {
	return &MockBotCheck{}
}

func (m *MockBotCheck) Token(ctx context.Context, deviceID string) (string, error) {
	if m.TokenError != nil {
		return "", m.TokenError
	}
	return "bot-token-" + deviceID, nil
}

// ──────────────────────────────────────────────
// MOCK DIRECTORY ADMIN
// ──────────────────────────────────────────────

// MockDirectory is a mock implementation of provider.DirectoryAdmin.
type MockDirectory struct {
	mu     sync.Mutex
	emails map[string]bool

	// Counters
	CreateUserCallCount int32
	ResetCallCount      int32
	RevokeCallCount     int32

	// Error injection
	CreateUserError error
	ResetError      error
	RevokeError     error

	// ForceEmailExists makes every CreateUser collide.
	ForceEmailExists bool

	users int
}

// NewMockDirectory creates a new mock directory.
func NewMockDirectory() *MockDirectory {
	return &MockDirectory{emails: make(map[string]bool)}
}

// AddEmail registers an existing directory email (for collision tests).
func (m *MockDirectory) AddEmail(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails[email] = true
}

func (m *MockDirectory) CreateUser(ctx context.Context, email, password, phone string) (string, error) {
	atomic.AddInt32(&m.CreateUserCallCount, 1)
	if m.CreateUserError != nil {
		return "", m.CreateUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForceEmailExists || m.emails[email] {
		return "", provider.ErrEmailExists
	}
	m.emails[email] = true
	m.users++
	return fmt.Sprintf("subject-%d", m.users), nil
}

func (m *MockDirectory) SendPasswordReset(ctx context.Context, email string) error {
	atomic.AddInt32(&m.ResetCallCount, 1)
	return m.ResetError
}

func (m *MockDirectory) RevokeSessions(ctx context.Context, subjectID string) error {
	atomic.AddInt32(&m.RevokeCallCount, 1)
	return m.RevokeError
}

// ──────────────────────────────────────────────
// MOCK RATE LIMITER
// ──────────────────────────────────────────────

// MockRateLimiter is a mock implementation of RateLimiterInterface.
type MockRateLimiter struct {
	// Deny makes every challenge request throttled.
	Deny bool

	// Error injection
	AllowError error

	// Counters
	AllowCallCount int32
}

// NewMockRateLimiter creates a new mock rate limiter.
func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{}
}

func (m *MockRateLimiter) AllowChallenge(ctx context.Context, phone string) (bool, error) {
	atomic.AddInt32(&m.AllowCallCount, 1)
	if m.AllowError != nil {
		return false, m.AllowError
	}
	return !m.Deny, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireProvisionLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:provision:" + driverID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseProvisionLock(ctx context.Context, driverID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:provision:"+driverID)
	return nil
}
