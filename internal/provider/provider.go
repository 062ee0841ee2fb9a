// Package provider defines the contracts for the hosted verification and
// identity-directory services this core consumes, plus HTTP clients for
// them. The core never retries provider failures; typed errors surface to
// the caller untouched.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrInvalidPhone is returned when the provider rejects the phone number.
	ErrInvalidPhone = errors.New("provider: invalid phone number")

	// ErrQuotaExceeded is returned when the provider throttles challenge delivery.
	ErrQuotaExceeded = errors.New("provider: sms quota exceeded")

	// ErrBotCheckFailed is returned when the bot-check token is rejected.
	ErrBotCheckFailed = errors.New("provider: bot check failed")

	// ErrNetwork is returned when the provider cannot be reached.
	ErrNetwork = errors.New("provider: network error")

	// ErrInvalidCode is returned when the one-time code does not match.
	ErrInvalidCode = errors.New("provider: invalid verification code")

	// ErrInvalidSession is returned when the challenge handle is unknown.
	ErrInvalidSession = errors.New("provider: invalid verification session")

	// ErrCodeExpired is returned when the one-time code has expired.
	ErrCodeExpired = errors.New("provider: verification code expired")

	// ErrEmailExists is returned when a directory user with the email already exists.
	ErrEmailExists = errors.New("provider: email already in use")
)

// PhoneVerifier is the challenge/response contract of the verification
// provider.
type PhoneVerifier interface {
	// IssueChallenge delivers a one-time code to the phone number and
	// returns an opaque challenge handle.
	IssueChallenge(ctx context.Context, phone, botCheckToken string) (string, error)

	// ConfirmChallenge verifies the code against the challenge handle and
	// returns the subject id the provider assigned to the principal.
	ConfirmChallenge(ctx context.Context, challengeRef, code string) (string, error)
}

// BotCheck produces the per-device token required before the first
// challenge. Rendering the check itself happens outside this core.
type BotCheck interface {
	Token(ctx context.Context, deviceID string) (string, error)
}

// DirectoryAdmin is the account-administration contract of the hosted
// identity directory.
type DirectoryAdmin interface {
	// CreateUser creates a principal with email/password credentials and
	// returns its subject id.
	CreateUser(ctx context.Context, email, password, phone string) (string, error)

	// SendPasswordReset triggers an out-of-band credential reset email.
	SendPasswordReset(ctx context.Context, email string) error

	// RevokeSessions terminates all provider sessions for a subject.
	RevokeSessions(ctx context.Context, subjectID string) error
}
