package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"rideid/internal/domain"
	"rideid/internal/provider"
	"rideid/internal/redis"
	"rideid/internal/repository"
)

const provisionLockTTL = 30 * time.Second

// ProvisionerService creates a driver's future login identity ahead of the
// driver ever opening the app.
type ProvisionerService struct {
	identityRepo repository.IdentityRepository
	driverRepo   repository.DriverRepository
	directory    provider.DirectoryAdmin
	lockStore    redis.LockStoreInterface
	notifier     *NotificationService
	countryCode  string
	emailDomain  string
}

// NewProvisionerService creates a new ProvisionerService. lockStore may be
// nil, in which case no cross-process provisioning lock is taken.
func NewProvisionerService(
	identityRepo repository.IdentityRepository,
	driverRepo repository.DriverRepository,
	directory provider.DirectoryAdmin,
	lockStore redis.LockStoreInterface,
	notifier *NotificationService,
	countryCode string,
	emailDomain string,
) *ProvisionerService {
	return &ProvisionerService{
		identityRepo: identityRepo,
		driverRepo:   driverRepo,
		directory:    directory,
		lockStore:    lockStore,
		notifier:     notifier,
		countryCode:  countryCode,
		emailDomain:  emailDomain,
	}
}

// ProvisionDriverRequest contains the parameters for provisioning a driver.
type ProvisionDriverRequest struct {
	DriverID string
	Name     string
	Phone    string
	Status   domain.AccountStatus
	Vehicle  domain.VehicleInfo
}

// ProvisionResult reports what was created.
type ProvisionResult struct {
	DriverID   string
	SubjectID  string // set by the immediate-credential strategy
	TempUserID string // set by the deferred phone-link strategy
	LoginEmail string // set by the immediate-credential strategy
}

// ProvisionWithCredentials runs the immediate-credential strategy: a real
// directory principal is created now with a synthesized login email and a
// temporary password, and a credential reset goes out to the driver.
func (s *ProvisionerService) ProvisionWithCredentials(ctx context.Context, req ProvisionDriverRequest) (*ProvisionResult, error) {
	phone, release, err := s.begin(ctx, &req)
	if err != nil {
		return nil, err
	}
	defer release()

	password, err := GenerateTempPassword()
	if err != nil {
		return nil, err
	}

	email := SynthesizeLoginEmail(req.Name, s.emailDomain, false)
	subjectID, err := s.directory.CreateUser(ctx, email, password, phone)
	if errors.Is(err, provider.ErrEmailExists) {
		// One retry with a timestamp suffix covers the common collision.
		email = SynthesizeLoginEmail(req.Name, s.emailDomain, true)
		subjectID, err = s.directory.CreateUser(ctx, email, password, phone)
	}
	if err != nil {
		if errors.Is(err, provider.ErrEmailExists) {
			return nil, ErrCredentialCreationFailed
		}
		return nil, err
	}

	now := time.Now()
	driver := &domain.Driver{
		ID:        req.DriverID,
		Name:      req.Name,
		Phone:     phone,
		Status:    domain.DriverStatusAvailable,
		Vehicle:   req.Vehicle,
		AuthUID:   subjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	identity := s.driverIdentity(req, subjectID, phone, now)
	identity.AuthUID = subjectID
	identity.Email = email
	identity.IsVerified = true
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}

	// Credential delivery is out of band; a failure here is reported but
	// does not unwind the account.
	if err := s.directory.SendPasswordReset(ctx, email); err != nil {
		log.Printf("[PROVISION] password reset email for %s failed: %v", email, err)
	}
	_ = s.notifier.NotifyCredentialReset(ctx, email, req.Name)

	return &ProvisionResult{
		DriverID:   req.DriverID,
		SubjectID:  subjectID,
		LoginEmail: email,
	}, nil
}

// ProvisionDeferred runs the deferred phone-link strategy: no principal
// exists yet, only a placeholder identity and a driver record pointing at
// it. The driver's first successful phone verification triggers linking.
func (s *ProvisionerService) ProvisionDeferred(ctx context.Context, req ProvisionDriverRequest) (*ProvisionResult, error) {
	phone, release, err := s.begin(ctx, &req)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now()
	tempUserID := fmt.Sprintf("temp_%s_%d", req.DriverID, now.Unix())

	placeholder := s.driverIdentity(req, tempUserID, phone, now)
	placeholder.PendingPhoneVerification = true
	if err := s.identityRepo.Create(ctx, placeholder); err != nil {
		return nil, err
	}

	driver := &domain.Driver{
		ID:         req.DriverID,
		Name:       req.Name,
		Phone:      phone,
		Status:     domain.DriverStatusAvailable,
		Vehicle:    req.Vehicle,
		TempUserID: tempUserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.driverRepo.Create(ctx, driver); err != nil {
		// The placeholder must not outlive its driver record.
		if delErr := s.identityRepo.Delete(ctx, tempUserID); delErr != nil {
			log.Printf("[PROVISION] orphaned placeholder %s: %v", tempUserID, delErr)
		}
		return nil, err
	}

	return &ProvisionResult{
		DriverID:   req.DriverID,
		TempUserID: tempUserID,
	}, nil
}

// begin validates the request, takes the provisioning lock and rejects
// duplicate provisioning. The returned release func is a no-op when no lock
// store is configured.
func (s *ProvisionerService) begin(ctx context.Context, req *ProvisionDriverRequest) (string, func(), error) {
	if req.DriverID == "" {
		return "", nil, ErrInvalidDriverID
	}
	if req.Name == "" {
		return "", nil, ErrInvalidName
	}
	if req.Status == "" {
		req.Status = domain.AccountStatusActive
	}

	phone, err := NormalizeE164(req.Phone, s.countryCode)
	if err != nil {
		return "", nil, err
	}

	release := func() {}
	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireProvisionLock(ctx, req.DriverID, provisionLockTTL)
		if err != nil {
			return "", nil, err
		}
		if !locked {
			return "", nil, ErrDriverAlreadyProvisioned
		}
		release = func() { _ = s.lockStore.ReleaseProvisionLock(ctx, req.DriverID) }
	}

	fail := func(err error) (string, func(), error) {
		release()
		return "", nil, err
	}

	if _, err := s.driverRepo.GetByID(ctx, req.DriverID); err == nil {
		return fail(ErrDriverAlreadyProvisioned)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fail(err)
	}

	if _, err := s.identityRepo.GetByPhone(ctx, phone); err == nil {
		return fail(ErrPhoneAlreadyRegistered)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fail(err)
	}

	return phone, release, nil
}

func (s *ProvisionerService) driverIdentity(req ProvisionDriverRequest, id, phone string, now time.Time) *domain.Identity {
	vehicle := req.Vehicle
	return &domain.Identity{
		ID:        id,
		FirstName: req.Name,
		Phone:     phone,
		Status:    req.Status,
		Role:      domain.RoleDriver,
		DriverID:  req.DriverID,
		Vehicle:   &vehicle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
