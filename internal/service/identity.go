package service

import (
	"context"
	"errors"
	"time"

	"rideid/internal/domain"
	"rideid/internal/redis"
	"rideid/internal/repository"
)

// IdentityService covers the identity operations outside the resolution
// path: customer registration and account status administration.
type IdentityService struct {
	identityRepo repository.IdentityRepository
	cacheStore   *redis.CacheStore
	notifier     *NotificationService
	countryCode  string
}

// NewIdentityService creates a new IdentityService. cacheStore may be nil.
func NewIdentityService(
	identityRepo repository.IdentityRepository,
	cacheStore *redis.CacheStore,
	notifier *NotificationService,
	countryCode string,
) *IdentityService {
	return &IdentityService{
		identityRepo: identityRepo,
		cacheStore:   cacheStore,
		notifier:     notifier,
		countryCode:  countryCode,
	}
}

// RegisterCustomerRequest contains the parameters for customer registration.
type RegisterCustomerRequest struct {
	SubjectID string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// RegisterCustomer creates the customer identity record the resolver asked
// for when it reported Exists=false. The phone is already verified at this
// point; registration only fills in the profile.
func (s *IdentityService) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*domain.Identity, error) {
	if req.SubjectID == "" {
		return nil, ErrInvalidSubjectID
	}
	if req.FirstName == "" {
		return nil, ErrInvalidName
	}

	phone, err := NormalizeE164(req.Phone, s.countryCode)
	if err != nil {
		return nil, err
	}

	if _, err := s.identityRepo.GetByID(ctx, req.SubjectID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if existing, err := s.identityRepo.GetByPhone(ctx, phone); err == nil {
		// Placeholders are the only permitted duplicate for a phone, and
		// they belong to drivers, not customers.
		if !existing.IsPlaceholder() {
			return nil, ErrPhoneAlreadyRegistered
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	identity := &domain.Identity{
		ID:         req.SubjectID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      phone,
		IsVerified: true,
		Status:     domain.AccountStatusActive,
		Role:       domain.RoleCustomer,
		AuthUID:    req.SubjectID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}

	return identity, nil
}

// SetStatus updates an account's status, invalidates its cache entry and
// notifies the account holder. A blocked or inactive account is forced out
// at its next guard pass.
func (s *IdentityService) SetStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	if id == "" {
		return ErrInvalidSubjectID
	}

	if err := s.identityRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateIdentity(ctx, id)
	}
	_ = s.notifier.NotifyAccountStatusChanged(ctx, id, status == domain.AccountStatusBlocked)

	return nil
}

// Get retrieves an identity record.
func (s *IdentityService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	if id == "" {
		return nil, ErrInvalidSubjectID
	}
	return s.identityRepo.GetByID(ctx, id)
}
