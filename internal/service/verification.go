package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"rideid/internal/domain"
	"rideid/internal/provider"
	"rideid/internal/redis"
)

// VerificationService owns the lifecycle of phone-verification attempts:
// challenge issuance, code submission, expiry and resend. Sessions are
// process-local values handed back to the caller; the service only tracks
// which handle is live per device so a newer challenge invalidates older
// handles.
type VerificationService struct {
	verifier    provider.PhoneVerifier
	botCheck    provider.BotCheck
	rateLimiter redis.RateLimiterInterface

	challengeTTL    time.Duration
	maxCodeAttempts int

	mu   sync.Mutex
	live map[string]string // deviceID -> live session handle id
}

// NewVerificationService creates a new VerificationService. rateLimiter may
// be nil, in which case only the provider's own quota applies.
func NewVerificationService(
	verifier provider.PhoneVerifier,
	botCheck provider.BotCheck,
	rateLimiter redis.RateLimiterInterface,
	challengeTTL time.Duration,
	maxCodeAttempts int,
) *VerificationService {
	return &VerificationService{
		verifier:        verifier,
		botCheck:        botCheck,
		rateLimiter:     rateLimiter,
		challengeTTL:    challengeTTL,
		maxCodeAttempts: maxCodeAttempts,
		live:            make(map[string]string),
	}
}

// BeginChallenge issues a one-time code to the phone number and returns the
// session handle. Any prior handle for the same device is invalidated
// silently.
func (s *VerificationService) BeginChallenge(ctx context.Context, deviceID, phone string) (*domain.VerificationSession, error) {
	if !IsValidE164(phone) {
		return nil, ErrInvalidPhoneFormat
	}

	if s.rateLimiter != nil {
		allowed, err := s.rateLimiter.AllowChallenge(ctx, phone)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrRateLimited
		}
	}

	token, err := s.botCheck.Token(ctx, deviceID)
	if err != nil {
		return nil, ErrChallengeSetupFailed
	}

	challengeRef, err := s.verifier.IssueChallenge(ctx, phone, token)
	if err != nil {
		return nil, mapIssueError(err)
	}

	session := &domain.VerificationSession{
		ID:           uuid.New().String(),
		DeviceID:     deviceID,
		Phone:        phone,
		ChallengeRef: challengeRef,
		ExpiresAt:    time.Now().Add(s.challengeTTL),
	}

	s.mu.Lock()
	s.live[deviceID] = session.ID
	s.mu.Unlock()

	return session, nil
}

// SubmitCode verifies the one-time code against the session. On success the
// handle is consumed and the provider-assigned subject id is returned.
func (s *VerificationService) SubmitCode(ctx context.Context, session *domain.VerificationSession, code string) (*domain.VerifiedPrincipal, error) {
	if session == nil {
		return nil, ErrSessionExpired
	}
	if !isSixDigitCode(code) {
		return nil, ErrInvalidCode
	}

	if !s.isLive(session) {
		return nil, ErrSessionExpired
	}
	if session.Expired(time.Now()) {
		s.invalidate(session)
		return nil, ErrSessionExpired
	}
	if session.FailedAttempts >= s.maxCodeAttempts {
		return nil, ErrTooManyAttempts
	}

	subjectID, err := s.verifier.ConfirmChallenge(ctx, session.ChallengeRef, code)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrInvalidCode):
			session.FailedAttempts++
			return nil, ErrInvalidCode
		case errors.Is(err, provider.ErrInvalidSession), errors.Is(err, provider.ErrCodeExpired):
			s.invalidate(session)
			return nil, ErrSessionExpired
		default:
			return nil, ErrProviderUnavailable
		}
	}

	// Single use: success consumes the handle.
	s.invalidate(session)

	return &domain.VerifiedPrincipal{
		SubjectID: subjectID,
		Phone:     session.Phone,
	}, nil
}

// Resend issues a fresh challenge for the session's phone number. The old
// handle is invalidated; no retry budget beyond the provider's rate limits.
func (s *VerificationService) Resend(ctx context.Context, session *domain.VerificationSession) (*domain.VerificationSession, error) {
	if session == nil {
		return nil, ErrSessionExpired
	}
	return s.BeginChallenge(ctx, session.DeviceID, session.Phone)
}

func (s *VerificationService) isLive(session *domain.VerificationSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[session.DeviceID] == session.ID
}

func (s *VerificationService) invalidate(session *domain.VerificationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live[session.DeviceID] == session.ID {
		delete(s.live, session.DeviceID)
	}
}

func isSixDigitCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func mapIssueError(err error) error {
	switch {
	case errors.Is(err, provider.ErrInvalidPhone):
		return ErrInvalidPhoneFormat
	case errors.Is(err, provider.ErrQuotaExceeded):
		return ErrRateLimited
	case errors.Is(err, provider.ErrBotCheckFailed):
		return ErrChallengeSetupFailed
	default:
		return ErrProviderUnavailable
	}
}
