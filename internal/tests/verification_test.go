package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"rideid/internal/provider"
	"rideid/internal/service"
)

// ──────────────────────────────────────────────
// 1. VERIFICATION SESSION LIFECYCLE
// ──────────────────────────────────────────────

func newVerificationService(verifier *MockVerifier) *service.VerificationService {
	return service.NewVerificationService(verifier, NewMockBotCheck(), nil, 5*time.Minute, 2)
}

func TestVerification_WrongCodeThenExhaustion(t *testing.T) {
	t.Parallel()

	verifier := NewMockVerifier("654321", "u1")
	svc := newVerificationService(verifier)
	ctx := context.Background()

	session, err := svc.BeginChallenge(ctx, "device-1", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First wrong code.
	_, err = svc.SubmitCode(ctx, session, "123456")
	if !errors.Is(err, service.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	// Session remains usable for one more attempt.
	_, err = svc.SubmitCode(ctx, session, "123456")
	if !errors.Is(err, service.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode on second attempt, got %v", err)
	}

	// Third submission hits the ceiling.
	_, err = svc.SubmitCode(ctx, session, "654321")
	if !errors.Is(err, service.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestVerification_SuccessConsumesHandle(t *testing.T) {
	t.Parallel()

	verifier := NewMockVerifier("654321", "u1")
	svc := newVerificationService(verifier)
	ctx := context.Background()

	session, err := svc.BeginChallenge(ctx, "device-1", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	principal, err := svc.SubmitCode(ctx, session, "654321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.SubjectID != "u1" {
		t.Errorf("expected subject u1, got %s", principal.SubjectID)
	}
	if principal.Phone != "+971501234567" {
		t.Errorf("expected verified phone to round-trip, got %s", principal.Phone)
	}

	// The handle is single use.
	_, err = svc.SubmitCode(ctx, session, "654321")
	if !errors.Is(err, service.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired after consumption, got %v", err)
	}
}

func TestVerification_NewChallengeInvalidatesOldHandle(t *testing.T) {
	t.Parallel()

	verifier := NewMockVerifier("654321", "u1")
	svc := newVerificationService(verifier)
	ctx := context.Background()

	first, err := svc.BeginChallenge(ctx, "device-1", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.BeginChallenge(ctx, "device-1", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Stale handle must not silently succeed.
	_, err = svc.SubmitCode(ctx, first, "654321")
	if !errors.Is(err, service.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired for invalidated handle, got %v", err)
	}

	// The live handle still works.
	if _, err := svc.SubmitCode(ctx, second, "654321"); err != nil {
		t.Fatalf("unexpected error on live handle: %v", err)
	}
}

func TestVerification_ResendIssuesFreshHandle(t *testing.T) {
	t.Parallel()

	verifier := NewMockVerifier("654321", "u1")
	svc := newVerificationService(verifier)
	ctx := context.Background()

	first, err := svc.BeginChallenge(ctx, "device-1", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Resend(ctx, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected resend to issue a new handle")
	}
	if second.Phone != first.Phone {
		t.Errorf("expected resend to keep the phone, got %s", second.Phone)
	}

	_, err = svc.SubmitCode(ctx, first, "654321")
	if !errors.Is(err, service.ErrSessionExpired) {
		t.Fatalf("expected old handle invalidated after resend, got %v", err)
	}
}

func TestVerification_InvalidPhoneRejectedBeforeProvider(t *testing.T) {
	t.Parallel()

	verifier := NewMockVerifier("654321", "u1")
	svc := newVerificationService(verifier)

	for _, phone := range []string{"", "0501234567", "+0501234567", "+971-50-1234567", "+9715012345678901234"} {
		_, err := svc.BeginChallenge(context.Background(), "device-1", phone)
		if !errors.Is(err, service.ErrInvalidPhoneFormat) {
			t.Errorf("phone %q: expected ErrInvalidPhoneFormat, got %v", phone, err)
		}
	}
	if verifier.IssueCallCount != 0 {
		t.Errorf("expected no provider calls for invalid phones, got %d", verifier.IssueCallCount)
	}
}

func TestVerification_ExpiredSessionRequiresRestart(t *testing.T) {
	t.Parallel()

	verifier := NewMockVerifier("654321", "u1")
	svc := service.NewVerificationService(verifier, NewMockBotCheck(), nil, -time.Second, 2)
	ctx := context.Background()

	session, err := svc.BeginChallenge(ctx, "device-1", "+971501234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.SubmitCode(ctx, session, "654321")
	if !errors.Is(err, service.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestVerification_ProviderErrorsSurfaceTyped(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		issueErr error
		want     error
	}{
		{"quota", provider.ErrQuotaExceeded, service.ErrRateLimited},
		{"bot check", provider.ErrBotCheckFailed, service.ErrChallengeSetupFailed},
		{"network", provider.ErrNetwork, service.ErrProviderUnavailable},
		{"invalid phone", provider.ErrInvalidPhone, service.ErrInvalidPhoneFormat},
	}

	for _, tc := range cases {
		verifier := NewMockVerifier("654321", "u1")
		verifier.IssueError = tc.issueErr
		svc := newVerificationService(verifier)

		_, err := svc.BeginChallenge(context.Background(), "device-1", "+971501234567")
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestVerification_RateLimiterBlocksChallenge(t *testing.T) {
	t.Parallel()

	verifier := NewMockVerifier("654321", "u1")
	limiter := NewMockRateLimiter()
	limiter.Deny = true
	svc := service.NewVerificationService(verifier, NewMockBotCheck(), limiter, 5*time.Minute, 2)

	_, err := svc.BeginChallenge(context.Background(), "device-1", "+971501234567")
	if !errors.Is(err, service.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if verifier.IssueCallCount != 0 {
		t.Error("expected no provider call when rate limited")
	}
}

func TestVerification_BotCheckFailureIsSetupError(t *testing.T) {
	t.Parallel()

	verifier := NewMockVerifier("654321", "u1")
	botCheck := NewMockBotCheck()
	botCheck.TokenError = provider.ErrBotCheckFailed
	svc := service.NewVerificationService(verifier, botCheck, nil, 5*time.Minute, 2)

	_, err := svc.BeginChallenge(context.Background(), "device-1", "+971501234567")
	if !errors.Is(err, service.ErrChallengeSetupFailed) {
		t.Fatalf("expected ErrChallengeSetupFailed, got %v", err)
	}
}
