package service

import (
	"context"
	"errors"
	"log"
	"time"

	"rideid/internal/domain"
	"rideid/internal/redis"
	"rideid/internal/repository"
)

// Deterministic fields for identity records synthesized on an admin's first
// sign-in.
const (
	adminFirstName = "Platform"
	adminLastName  = "Administrator"
	adminEmail     = "admin@rideid.app"
)

// Resolution is the outcome of resolving a verified principal.
type Resolution struct {
	// Exists is false when no identity record is keyed by the subject id;
	// the caller must run the customer registration flow.
	Exists bool

	// IsAdmin is true when the phone is on the admin allowlist, regardless
	// of prior state.
	IsAdmin bool

	// DriverLinked is true when this resolution consumed a pre-provisioned
	// driver placeholder.
	DriverLinked bool

	Identity *domain.Identity
}

// ResolverService decides what kind of account a verified phone number
// belongs to: new customer, existing customer, administrator, or a driver
// awaiting first login.
type ResolverService struct {
	identityRepo repository.IdentityRepository
	driverRepo   repository.DriverRepository
	linker       *LinkService
	cacheStore   *redis.CacheStore
	adminPhones  map[string]bool
}

// NewResolverService creates a new ResolverService. cacheStore may be nil.
func NewResolverService(
	identityRepo repository.IdentityRepository,
	driverRepo repository.DriverRepository,
	linker *LinkService,
	cacheStore *redis.CacheStore,
	adminPhones []string,
) *ResolverService {
	allowlist := make(map[string]bool, len(adminPhones))
	for _, p := range adminPhones {
		allowlist[p] = true
	}
	return &ResolverService{
		identityRepo: identityRepo,
		driverRepo:   driverRepo,
		linker:       linker,
		cacheStore:   cacheStore,
		adminPhones:  allowlist,
	}
}

// Resolve maps a verified subject id and phone number onto an account.
// Admin status strictly overrides driver linking: an admin phone never
// consumes a driver placeholder.
func (s *ResolverService) Resolve(ctx context.Context, subjectID, phone string) (*Resolution, error) {
	if subjectID == "" {
		return nil, ErrInvalidSubjectID
	}

	res := &Resolution{IsAdmin: s.adminPhones[phone]}

	if !res.IsAdmin {
		if err := s.reconcilePendingDriver(ctx, subjectID, phone, res); err != nil {
			return nil, err
		}
	}

	identity, err := s.identityRepo.GetByID(ctx, subjectID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if !res.IsAdmin {
			// Caller must run the registration flow.
			return res, nil
		}
		identity, err = s.synthesizeAdmin(ctx, subjectID, phone)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	s.canonicalizeRole(ctx, identity)

	res.Exists = true
	res.Identity = identity

	if s.cacheStore != nil {
		_ = s.cacheStore.SetIdentity(ctx, &redis.CachedIdentity{
			ID:         identity.ID,
			Phone:      identity.Phone,
			Role:       string(identity.Role),
			Status:     string(identity.Status),
			IsVerified: identity.IsVerified,
		})
	}

	return res, nil
}

// reconcilePendingDriver detects a pre-provisioned driver record keyed by
// phone and hands off to the Link Reconciler before normal resolution.
func (s *ResolverService) reconcilePendingDriver(ctx context.Context, subjectID, phone string, res *Resolution) error {
	driver, err := s.driverRepo.GetByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if driver.TempUserID == "" {
		// Already linked or never provisioned through a placeholder.
		return nil
	}

	_, err = s.linker.Link(ctx, driver.TempUserID, subjectID)
	switch {
	case err == nil:
		res.DriverLinked = true
	case errors.Is(err, ErrPlaceholderNotFound):
		// Already consumed by a concurrent link; fall through to normal
		// resolution.
	case errors.Is(err, ErrDriverLinkIncomplete):
		// The identity is committed; admit the session and keep the
		// defect visible.
		res.DriverLinked = true
		log.Printf("[RESOLVE] driver %s left unlinked after identity link for subject %s", driver.ID, subjectID)
	default:
		return err
	}
	return nil
}

func (s *ResolverService) synthesizeAdmin(ctx context.Context, subjectID, phone string) (*domain.Identity, error) {
	now := time.Now()
	identity := &domain.Identity{
		ID:         subjectID,
		FirstName:  adminFirstName,
		LastName:   adminLastName,
		Email:      adminEmail,
		Phone:      phone,
		IsVerified: true,
		Status:     domain.AccountStatusActive,
		Role:       domain.RoleAdmin,
		AuthUID:    subjectID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// canonicalizeRole folds the legacy boolean flags into the canonical role
// field for records created before role became explicit. The write-back is
// best effort; resolution proceeds on the in-memory value either way.
func (s *ResolverService) canonicalizeRole(ctx context.Context, identity *domain.Identity) {
	if identity.Role != "" {
		return
	}
	identity.Role = identity.EffectiveRole()
	if err := s.identityRepo.Update(ctx, identity); err != nil {
		log.Printf("[RESOLVE] failed to persist canonical role for %s: %v", identity.ID, err)
	}
}
