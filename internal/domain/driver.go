package domain

import "time"

// DriverStatus represents the operational status of a driver.
type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusSuspended DriverStatus = "SUSPENDED"
	DriverStatusRetired   DriverStatus = "RETIRED"
)

// Driver represents a driver record, keyed by an internally generated id
// that is independent of the auth provider's subject id.
type Driver struct {
	ID      string
	Name    string
	Phone   string // E.164
	Status  DriverStatus
	Vehicle VehicleInfo

	// AuthUID is the provider subject id once the driver has completed
	// phone verification. TempUserID points at the placeholder identity
	// while the driver is still unlinked.
	AuthUID    string
	TempUserID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Linked reports whether the driver has been linked to a provider subject.
func (d *Driver) Linked() bool {
	return d.AuthUID != ""
}
