package tests

import (
	"context"
	"testing"
	"time"

	"rideid/internal/domain"
	"rideid/internal/service"
)

// ──────────────────────────────────────────────
// 3. IDENTITY RESOLUTION
// ──────────────────────────────────────────────

func newResolver(identityRepo *MockIdentityRepository, driverRepo *MockDriverRepository, adminPhones []string) *service.ResolverService {
	linker := service.NewLinkService(identityRepo, driverRepo)
	return service.NewResolverService(identityRepo, driverRepo, linker, nil, adminPhones)
}

func TestResolve_UnknownSubjectRequiresRegistration(t *testing.T) {
	t.Parallel()

	resolver := newResolver(NewMockIdentityRepository(), NewMockDriverRepository(), nil)

	res, err := resolver.Resolve(context.Background(), "u1", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Exists {
		t.Error("expected Exists=false for unknown subject")
	}
	if res.IsAdmin || res.DriverLinked {
		t.Error("expected a plain unknown-customer resolution")
	}
}

func TestResolve_ExistingCustomer(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	identityRepo.AddIdentity(&domain.Identity{
		ID:         "u1",
		Phone:      "+971501234567",
		Role:       domain.RoleCustomer,
		Status:     domain.AccountStatusActive,
		IsVerified: true,
	})

	resolver := newResolver(identityRepo, NewMockDriverRepository(), nil)

	res, err := resolver.Resolve(context.Background(), "u1", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Exists {
		t.Fatal("expected existing identity")
	}
	if res.Identity.EffectiveRole() != domain.RoleCustomer {
		t.Errorf("expected customer role, got %s", res.Identity.EffectiveRole())
	}
}

func TestResolve_AdminSynthesizedDeterministically(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	resolver := newResolver(identityRepo, NewMockDriverRepository(), []string{"+971509999999"})

	res, err := resolver.Resolve(context.Background(), "admin-1", "+971509999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Exists || !res.IsAdmin {
		t.Fatalf("expected existing admin resolution, got %+v", res)
	}

	identity := identityRepo.GetIdentity("admin-1")
	if identity == nil {
		t.Fatal("expected synthesized admin record persisted")
	}
	if identity.FirstName != "Platform" || identity.LastName != "Administrator" {
		t.Errorf("unexpected admin name: %s %s", identity.FirstName, identity.LastName)
	}
	if identity.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %s", identity.Role)
	}
	if identity.Status != domain.AccountStatusActive || !identity.IsVerified {
		t.Error("expected synthesized admin active and verified")
	}
}

func TestResolve_AdminOverridesDriverPlaceholder(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	seedPlaceholder(identityRepo, driverRepo, "temp_d1_100", "d1", "+971509999999")

	resolver := newResolver(identityRepo, driverRepo, []string{"+971509999999"})

	res, err := resolver.Resolve(context.Background(), "admin-1", "+971509999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsAdmin {
		t.Fatal("expected admin resolution")
	}
	if res.DriverLinked {
		t.Error("expected admin phone to never consume a driver placeholder")
	}
	if identityRepo.GetIdentity("temp_d1_100") == nil {
		t.Error("expected placeholder untouched")
	}
	if res.Identity.EffectiveRole() != domain.RoleAdmin {
		t.Errorf("expected admin role, got %s", res.Identity.EffectiveRole())
	}
}

func TestResolve_PendingDriverLinkedOnFirstLogin(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	seedPlaceholder(identityRepo, driverRepo, "temp_d1_100", "d1", "+971501234567")

	resolver := newResolver(identityRepo, driverRepo, nil)

	res, err := resolver.Resolve(context.Background(), "u9", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Exists {
		t.Fatal("expected linked identity to exist")
	}
	if !res.DriverLinked {
		t.Error("expected DriverLinked=true on first driver login")
	}
	if res.Identity.ID != "u9" {
		t.Errorf("expected identity keyed by subject id, got %s", res.Identity.ID)
	}
	if res.Identity.EffectiveRole() != domain.RoleDriver {
		t.Errorf("expected driver role, got %s", res.Identity.EffectiveRole())
	}
	if driverRepo.GetDriver("d1").AuthUID != "u9" {
		t.Error("expected driver record linked to subject")
	}
}

func TestResolve_AlreadyLinkedDriverResolvesNormally(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	identityRepo.AddIdentity(&domain.Identity{
		ID:         "u9",
		Phone:      "+971501234567",
		Role:       domain.RoleDriver,
		DriverID:   "d1",
		AuthUID:    "u9",
		Status:     domain.AccountStatusActive,
		IsVerified: true,
	})
	driverRepo.AddDriver(&domain.Driver{
		ID:      "d1",
		Phone:   "+971501234567",
		Status:  domain.DriverStatusAvailable,
		AuthUID: "u9",
	})

	resolver := newResolver(identityRepo, driverRepo, nil)

	res, err := resolver.Resolve(context.Background(), "u9", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Exists {
		t.Fatal("expected existing identity")
	}
	if res.DriverLinked {
		t.Error("expected no placeholder consumption for a linked driver")
	}
}

func TestResolve_LegacyFlagsFoldIntoCanonicalRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		identity domain.Identity
		want     domain.Role
	}{
		{"legacy admin", domain.Identity{ID: "u1", LegacyAdmin: true}, domain.RoleAdmin},
		{"legacy driver", domain.Identity{ID: "u2", LegacyDriver: true}, domain.RoleDriver},
		{"admin wins over driver", domain.Identity{ID: "u3", LegacyAdmin: true, LegacyDriver: true}, domain.RoleAdmin},
		{"no flags", domain.Identity{ID: "u4"}, domain.RoleCustomer},
		{"explicit role wins", domain.Identity{ID: "u5", Role: domain.RoleCustomer, LegacyAdmin: true}, domain.RoleCustomer},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			identityRepo := NewMockIdentityRepository()
			id := tc.identity
			id.Phone = "+97150000000" + id.ID[1:]
			id.Status = domain.AccountStatusActive
			id.CreatedAt = time.Now()
			identityRepo.AddIdentity(&id)

			resolver := newResolver(identityRepo, NewMockDriverRepository(), nil)

			res, err := resolver.Resolve(context.Background(), id.ID, id.Phone)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := res.Identity.EffectiveRole(); got != tc.want {
				t.Errorf("expected role %s, got %s", tc.want, got)
			}

			// The canonical role is written back.
			if stored := identityRepo.GetIdentity(id.ID); stored.Role != tc.want {
				t.Errorf("expected canonical role %s persisted, got %q", tc.want, stored.Role)
			}
		})
	}
}
