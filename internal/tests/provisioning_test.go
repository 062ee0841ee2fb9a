package tests

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"rideid/internal/domain"
	"rideid/internal/service"
)

// ──────────────────────────────────────────────
// 5. DRIVER PROVISIONING
// ──────────────────────────────────────────────

func newProvisioner(identityRepo *MockIdentityRepository, driverRepo *MockDriverRepository, directory *MockDirectory, lockStore *MockLockStore) *service.ProvisionerService {
	return service.NewProvisionerService(
		identityRepo, driverRepo, directory, lockStore,
		service.NewNotificationService(),
		"+971", "drivers.rideid.app",
	)
}

func provisionRequest(driverID string) service.ProvisionDriverRequest {
	return service.ProvisionDriverRequest{
		DriverID: driverID,
		Name:     "Ahmed Hassan",
		Phone:    "+971501234567",
		Vehicle:  domain.VehicleInfo{Model: "Camry", Registration: "A 12345", Color: "white"},
	}
}

func TestProvisionDeferred_CreatesPlaceholderAndDriver(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	svc := newProvisioner(identityRepo, driverRepo, NewMockDirectory(), NewMockLockStore())

	result, err := svc.ProvisionDeferred(context.Background(), provisionRequest("d1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result.TempUserID, "temp_d1_") {
		t.Fatalf("expected temp_d1_ prefix, got %s", result.TempUserID)
	}
	if result.SubjectID != "" || result.LoginEmail != "" {
		t.Error("expected no directory principal for the deferred strategy")
	}

	placeholder := identityRepo.GetIdentity(result.TempUserID)
	if placeholder == nil {
		t.Fatal("expected placeholder identity")
	}
	if !placeholder.IsPlaceholder() {
		t.Error("expected placeholder pending phone verification")
	}
	if placeholder.Phone != "+971501234567" {
		t.Errorf("unexpected phone: %s", placeholder.Phone)
	}
	if placeholder.DriverID != "d1" {
		t.Errorf("expected driver back-reference, got %s", placeholder.DriverID)
	}
	if placeholder.Role != domain.RoleDriver {
		t.Errorf("expected driver role, got %s", placeholder.Role)
	}

	driver := driverRepo.GetDriver("d1")
	if driver == nil {
		t.Fatal("expected driver record")
	}
	if driver.TempUserID != result.TempUserID {
		t.Errorf("expected driver to point at placeholder, got %s", driver.TempUserID)
	}
	if driver.Linked() {
		t.Error("expected unlinked driver")
	}
}

func TestProvisionDeferred_DriverCreateFailureRemovesPlaceholder(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	driverRepo.CreateError = errors.New("store unavailable")
	svc := newProvisioner(identityRepo, driverRepo, NewMockDirectory(), NewMockLockStore())

	_, err := svc.ProvisionDeferred(context.Background(), provisionRequest("d1"))
	if err == nil {
		t.Fatal("expected error")
	}
	if got := identityRepo.CountIdentities(); got != 0 {
		t.Errorf("expected placeholder cleaned up, %d identities remain", got)
	}
}

func TestProvisionWithCredentials_CreatesPrincipalAndSendsReset(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	directory := NewMockDirectory()
	svc := newProvisioner(identityRepo, driverRepo, directory, NewMockLockStore())

	result, err := svc.ProvisionWithCredentials(context.Background(), provisionRequest("d1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SubjectID == "" {
		t.Fatal("expected directory subject id")
	}
	if result.LoginEmail != "ahmedhassan@drivers.rideid.app" {
		t.Errorf("unexpected login email: %s", result.LoginEmail)
	}

	identity := identityRepo.GetIdentity(result.SubjectID)
	if identity == nil {
		t.Fatal("expected identity keyed by subject id")
	}
	if !identity.IsVerified {
		t.Error("expected credential-provisioned identity verified")
	}
	if identity.AuthUID != result.SubjectID {
		t.Errorf("expected auth uid %s, got %s", result.SubjectID, identity.AuthUID)
	}
	if identity.Email != result.LoginEmail {
		t.Errorf("expected login email persisted, got %s", identity.Email)
	}

	driver := driverRepo.GetDriver("d1")
	if driver == nil || driver.AuthUID != result.SubjectID {
		t.Fatal("expected driver linked to the new principal")
	}

	if atomic.LoadInt32(&directory.ResetCallCount) != 1 {
		t.Errorf("expected one password reset, got %d", directory.ResetCallCount)
	}
}

func TestProvisionWithCredentials_EmailCollisionRetriesWithSuffix(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	directory := NewMockDirectory()
	directory.AddEmail("ahmedhassan@drivers.rideid.app")
	svc := newProvisioner(identityRepo, driverRepo, directory, NewMockLockStore())

	result, err := svc.ProvisionWithCredentials(context.Background(), provisionRequest("d1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.LoginEmail == "ahmedhassan@drivers.rideid.app" {
		t.Error("expected a suffixed email on collision")
	}
	if !strings.HasPrefix(result.LoginEmail, "ahmedhassan") || !strings.HasSuffix(result.LoginEmail, "@drivers.rideid.app") {
		t.Errorf("unexpected email shape: %s", result.LoginEmail)
	}
	if atomic.LoadInt32(&directory.CreateUserCallCount) != 2 {
		t.Errorf("expected exactly one retry, got %d calls", directory.CreateUserCallCount)
	}
}

func TestProvisionWithCredentials_PersistentCollisionFails(t *testing.T) {
	t.Parallel()

	directory := NewMockDirectory()
	directory.ForceEmailExists = true
	svc := newProvisioner(NewMockIdentityRepository(), NewMockDriverRepository(), directory, NewMockLockStore())

	_, err := svc.ProvisionWithCredentials(context.Background(), provisionRequest("d1"))
	if !errors.Is(err, service.ErrCredentialCreationFailed) {
		t.Fatalf("expected ErrCredentialCreationFailed, got %v", err)
	}
}

func TestProvision_DuplicateDriverRejected(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	svc := newProvisioner(identityRepo, driverRepo, NewMockDirectory(), NewMockLockStore())
	ctx := context.Background()

	if _, err := svc.ProvisionDeferred(ctx, provisionRequest("d1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.ProvisionDeferred(ctx, provisionRequest("d1"))
	if !errors.Is(err, service.ErrDriverAlreadyProvisioned) {
		t.Fatalf("expected ErrDriverAlreadyProvisioned, got %v", err)
	}
}

func TestProvision_RegisteredPhoneRejected(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	identityRepo.AddIdentity(&domain.Identity{
		ID:    "u1",
		Phone: "+971501234567",
		Role:  domain.RoleCustomer,
	})
	svc := newProvisioner(identityRepo, NewMockDriverRepository(), NewMockDirectory(), NewMockLockStore())

	_, err := svc.ProvisionDeferred(context.Background(), provisionRequest("d1"))
	if !errors.Is(err, service.ErrPhoneAlreadyRegistered) {
		t.Fatalf("expected ErrPhoneAlreadyRegistered, got %v", err)
	}
}

func TestProvision_HeldLockRejectsConcurrentRequest(t *testing.T) {
	t.Parallel()

	lockStore := NewMockLockStore()
	lockStore.ForceAcquireFailure = true
	svc := newProvisioner(NewMockIdentityRepository(), NewMockDriverRepository(), NewMockDirectory(), lockStore)

	_, err := svc.ProvisionDeferred(context.Background(), provisionRequest("d1"))
	if !errors.Is(err, service.ErrDriverAlreadyProvisioned) {
		t.Fatalf("expected ErrDriverAlreadyProvisioned, got %v", err)
	}
}

func TestProvision_NationalPhoneNormalized(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	svc := newProvisioner(identityRepo, driverRepo, NewMockDirectory(), NewMockLockStore())

	req := provisionRequest("d1")
	req.Phone = "050 123 4567"

	result, err := svc.ProvisionDeferred(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := identityRepo.GetIdentity(result.TempUserID).Phone; got != "+971501234567" {
		t.Errorf("expected normalized E.164 phone, got %s", got)
	}
	if got := driverRepo.GetDriver("d1").Phone; got != "+971501234567" {
		t.Errorf("expected normalized driver phone, got %s", got)
	}
}

func TestProvision_InputValidation(t *testing.T) {
	t.Parallel()

	svc := newProvisioner(NewMockIdentityRepository(), NewMockDriverRepository(), NewMockDirectory(), nil)
	ctx := context.Background()

	req := provisionRequest("")
	if _, err := svc.ProvisionDeferred(ctx, req); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}

	req = provisionRequest("d1")
	req.Name = ""
	if _, err := svc.ProvisionDeferred(ctx, req); !errors.Is(err, service.ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}

	req = provisionRequest("d1")
	req.Phone = "invalid&phone"
	if _, err := svc.ProvisionDeferred(ctx, req); !errors.Is(err, service.ErrInvalidPhoneFormat) {
		t.Errorf("expected ErrInvalidPhoneFormat, got %v", err)
	}
}
