package domain

import "time"

// VerificationSession is the ephemeral state of one phone-verification
// attempt. It is a value handed back to the caller by BeginChallenge and
// threaded through SubmitCode/Resend; nothing about it is persisted.
type VerificationSession struct {
	ID             string // handle id, unique per challenge
	DeviceID       string
	Phone          string // E.164
	ChallengeRef   string // opaque provider challenge handle
	FailedAttempts int
	ExpiresAt      time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *VerificationSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// VerifiedPrincipal is the result of a successful code submission: the
// subject id the auth provider assigned to the verified phone number.
type VerifiedPrincipal struct {
	SubjectID string
	Phone     string
}
