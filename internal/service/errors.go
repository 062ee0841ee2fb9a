package service

import "errors"

var (
	// ErrInvalidPhoneFormat is returned when a phone number is not valid E.164.
	ErrInvalidPhoneFormat = errors.New("invalid phone number format")

	// ErrInvalidCode is returned when the submitted one-time code is wrong or malformed.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrProviderUnavailable is returned when the verification provider cannot be reached.
	ErrProviderUnavailable = errors.New("verification provider unavailable")

	// ErrRateLimited is returned when challenge issuance is throttled.
	ErrRateLimited = errors.New("too many verification requests")

	// ErrChallengeSetupFailed is returned when bot-check setup fails before a challenge.
	ErrChallengeSetupFailed = errors.New("challenge setup failed")

	// ErrSessionExpired is returned when a verification session has expired
	// or been invalidated by a newer challenge. The caller must begin a new
	// challenge.
	ErrSessionExpired = errors.New("verification session expired")

	// ErrTooManyAttempts is returned when the failed-attempt ceiling for a
	// session has been reached.
	ErrTooManyAttempts = errors.New("too many failed verification attempts")

	// ErrPlaceholderNotFound is returned when linking finds no placeholder:
	// either it was already consumed or never existed. Callers treat this as
	// "not a pending driver" and fall through to normal resolution.
	ErrPlaceholderNotFound = errors.New("placeholder identity not found")

	// ErrDriverLinkIncomplete is returned when the linked identity was
	// written but the driver record update failed. The identity is valid;
	// the driver record needs repair.
	ErrDriverLinkIncomplete = errors.New("identity linked but driver record update failed")

	// ErrCredentialCreationFailed is returned when a driver login could not
	// be created at the directory.
	ErrCredentialCreationFailed = errors.New("credential creation failed")

	// ErrDriverAlreadyProvisioned is returned when provisioning is retried
	// for an existing driver id.
	ErrDriverAlreadyProvisioned = errors.New("driver already provisioned")

	// ErrAccountBlocked is returned when a blocked account attempts to sign in.
	ErrAccountBlocked = errors.New("your account has been blocked, please contact support")

	// ErrAccountInactive is returned when an inactive account attempts to sign in.
	ErrAccountInactive = errors.New("your account is inactive, please contact support")

	// ErrAccountNotVerified is returned when an unverified account attempts to sign in.
	ErrAccountNotVerified = errors.New("your account is not verified, please contact support")

	// ErrAccountDataMissing is returned when a principal exists at the
	// provider but no identity record was ever created for it.
	ErrAccountDataMissing = errors.New("account data not found, please contact support")

	// ErrInvalidDriverID is returned when a driver id is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidSubjectID is returned when a provider subject id is empty.
	ErrInvalidSubjectID = errors.New("invalid subject id")

	// ErrInvalidName is returned when a required name is empty.
	ErrInvalidName = errors.New("invalid name")

	// ErrPhoneAlreadyRegistered is returned when registration or provisioning
	// would create a second account for a phone number.
	ErrPhoneAlreadyRegistered = errors.New("phone number already registered")

	// ErrAlreadyRegistered is returned when registration is retried for a
	// subject that already has an identity record.
	ErrAlreadyRegistered = errors.New("account already registered")
)
