package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rideid/internal/domain"
	"rideid/internal/service"
)

// ──────────────────────────────────────────────
// 2. PLACEHOLDER LINKING
// ──────────────────────────────────────────────

func seedPlaceholder(identityRepo *MockIdentityRepository, driverRepo *MockDriverRepository, tempUserID, driverID, phone string) {
	identityRepo.AddIdentity(&domain.Identity{
		ID:                       tempUserID,
		Phone:                    phone,
		FirstName:                "Ahmed",
		LastName:                 "Hassan",
		LegacyDriver:             true,
		DriverID:                 driverID,
		Status:                   domain.AccountStatusActive,
		PendingPhoneVerification: true,
		CreatedAt:                time.Now(),
	})
	driverRepo.AddDriver(&domain.Driver{
		ID:         driverID,
		Name:       "Ahmed Hassan",
		Phone:      phone,
		Status:     domain.DriverStatusAvailable,
		TempUserID: tempUserID,
	})
}

func TestLink_PlaceholderConsumedIntoPermanentIdentity(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	seedPlaceholder(identityRepo, driverRepo, "temp_d1_100", "d1", "+971501234567")

	svc := service.NewLinkService(identityRepo, driverRepo)

	subjectID, err := svc.Link(context.Background(), "temp_d1_100", "u9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subjectID != "u9" {
		t.Fatalf("expected subject u9, got %s", subjectID)
	}

	// Permanent identity carries the placeholder's profile.
	linked := identityRepo.GetIdentity("u9")
	if linked == nil {
		t.Fatal("expected identity at u9")
	}
	if linked.AuthUID != "u9" {
		t.Errorf("expected auth uid u9, got %s", linked.AuthUID)
	}
	if linked.Phone != "+971501234567" {
		t.Errorf("expected phone to carry over, got %s", linked.Phone)
	}
	if linked.DriverID != "d1" {
		t.Errorf("expected driver id d1, got %s", linked.DriverID)
	}
	if linked.PendingPhoneVerification {
		t.Error("expected pending flag cleared")
	}

	// Placeholder is gone.
	if identityRepo.GetIdentity("temp_d1_100") != nil {
		t.Error("expected placeholder removed")
	}

	// Driver record points at the permanent subject.
	driver := driverRepo.GetDriver("d1")
	if driver.AuthUID != "u9" {
		t.Errorf("expected driver auth uid u9, got %s", driver.AuthUID)
	}
	if driver.TempUserID != "" {
		t.Errorf("expected temp user id cleared, got %s", driver.TempUserID)
	}
	if !driver.Linked() {
		t.Error("expected driver to report linked")
	}
}

func TestLink_SecondAttemptFindsNoPlaceholder(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	seedPlaceholder(identityRepo, driverRepo, "temp_d1_100", "d1", "+971501234567")

	svc := service.NewLinkService(identityRepo, driverRepo)
	ctx := context.Background()

	if _, err := svc.Link(ctx, "temp_d1_100", "u9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Link(ctx, "temp_d1_100", "u9")
	if !errors.Is(err, service.ErrPlaceholderNotFound) {
		t.Fatalf("expected ErrPlaceholderNotFound, got %v", err)
	}
}

func TestLink_ConcurrentConsumersOneWinner(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	seedPlaceholder(identityRepo, driverRepo, "temp_d1_100", "d1", "+971501234567")

	svc := service.NewLinkService(identityRepo, driverRepo)

	const workers = 8
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = svc.Link(context.Background(), "temp_d1_100", "u9")
		}(i)
	}
	wg.Wait()

	var successes, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrPlaceholderNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly one winner, got %d", successes)
	}
	if notFound != workers-1 {
		t.Errorf("expected %d losers, got %d", workers-1, notFound)
	}

	// No duplicate records.
	if got := identityRepo.CountIdentities(); got != 1 {
		t.Errorf("expected 1 identity after race, got %d", got)
	}
	if identityRepo.GetIdentity("u9") == nil {
		t.Error("expected identity at u9")
	}
}

func TestLink_DriverUpdateFailureSurfacesIncomplete(t *testing.T) {
	t.Parallel()

	identityRepo := NewMockIdentityRepository()
	driverRepo := NewMockDriverRepository()
	seedPlaceholder(identityRepo, driverRepo, "temp_d1_100", "d1", "+971501234567")
	driverRepo.SetAuthLinkError = errors.New("store unavailable")

	svc := service.NewLinkService(identityRepo, driverRepo)

	subjectID, err := svc.Link(context.Background(), "temp_d1_100", "u9")
	if !errors.Is(err, service.ErrDriverLinkIncomplete) {
		t.Fatalf("expected ErrDriverLinkIncomplete, got %v", err)
	}
	if subjectID != "u9" {
		t.Errorf("expected subject id returned despite incomplete link, got %q", subjectID)
	}

	// The identity side of the link is committed.
	if identityRepo.GetIdentity("u9") == nil {
		t.Error("expected linked identity to persist")
	}
	if identityRepo.GetIdentity("temp_d1_100") != nil {
		t.Error("expected placeholder consumed")
	}

	// The driver record is left untouched for a later repair.
	driver := driverRepo.GetDriver("d1")
	if driver.AuthUID != "" {
		t.Errorf("expected driver still unlinked, got auth uid %s", driver.AuthUID)
	}
}

func TestLink_InputValidation(t *testing.T) {
	t.Parallel()

	svc := service.NewLinkService(NewMockIdentityRepository(), NewMockDriverRepository())
	ctx := context.Background()

	if _, err := svc.Link(ctx, "temp_d1_100", ""); !errors.Is(err, service.ErrInvalidSubjectID) {
		t.Errorf("expected ErrInvalidSubjectID, got %v", err)
	}
	if _, err := svc.Link(ctx, "", "u9"); !errors.Is(err, service.ErrPlaceholderNotFound) {
		t.Errorf("expected ErrPlaceholderNotFound for empty temp id, got %v", err)
	}
}
