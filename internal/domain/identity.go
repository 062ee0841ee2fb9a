package domain

import "time"

// AccountStatus represents the lifecycle status of an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusBlocked  AccountStatus = "blocked"
)

// Role represents the canonical role of an authenticated principal.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

// VehicleInfo carries the vehicle payload attached to driver identities.
type VehicleInfo struct {
	Model        string
	Registration string
	Color        string
}

// Identity represents one authenticated principal, keyed by the auth
// provider's subject id. Placeholder identities created before a driver's
// first login are keyed by a synthetic temp id and carry
// PendingPhoneVerification until the Link Reconciler consumes them.
type Identity struct {
	ID         string // provider subject id, or temp_<driverID>_<unix> for placeholders
	FirstName  string
	LastName   string
	Email      string
	Phone      string // E.164
	IsVerified bool
	Status     AccountStatus
	Role       Role // empty on records created before role became explicit

	// Legacy boolean flags, read only for records written before Role
	// existed. EffectiveRole folds them into the canonical role.
	LegacyAdmin  bool
	LegacyDriver bool

	DriverID                 string // back-reference for driver identities
	AuthUID                  string // set once linked to a provider subject
	Vehicle                  *VehicleInfo
	PendingPhoneVerification bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveRole returns the canonical role, falling back to the legacy
// boolean flags for old records. Admin wins over driver.
func (i *Identity) EffectiveRole() Role {
	if i.Role != "" {
		return i.Role
	}
	if i.LegacyAdmin {
		return RoleAdmin
	}
	if i.LegacyDriver {
		return RoleDriver
	}
	return RoleCustomer
}

// IsPlaceholder reports whether this record is a pre-provisioned placeholder
// that has not yet been linked to a real provider subject.
func (i *Identity) IsPlaceholder() bool {
	return i.PendingPhoneVerification
}
