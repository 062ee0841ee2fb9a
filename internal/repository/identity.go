package repository

import (
	"context"

	"rideid/internal/domain"
)

// IdentityRepository defines the persistence operations for identity
// records, including placeholder identities.
type IdentityRepository interface {
	// Create adds a new identity record.
	Create(ctx context.Context, identity *domain.Identity) error

	// GetByID retrieves an identity by its key (subject id or temp id).
	GetByID(ctx context.Context, id string) (*domain.Identity, error)

	// GetByPhone retrieves an identity by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Identity, error)

	// Update overwrites an existing identity record.
	Update(ctx context.Context, identity *domain.Identity) error

	// UpdateStatus updates only the account status.
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error

	// Delete removes an identity record.
	Delete(ctx context.Context, id string) error

	// ConsumePlaceholder atomically reads the placeholder at tempUserID,
	// writes the linked identity keyed by subjectID and deletes the
	// placeholder, all as a single conditional unit. When the placeholder
	// does not exist (never created, or already consumed by a concurrent
	// link) it returns ErrNotFound and writes nothing.
	ConsumePlaceholder(ctx context.Context, tempUserID, subjectID string) (*domain.Identity, error)
}

// DriverRepository defines the persistence operations for driver records.
type DriverRepository interface {
	// Create adds a new driver record.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByPhone retrieves a driver by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// SetAuthLink sets the provider subject id on a driver and clears its
	// placeholder back-reference.
	SetAuthLink(ctx context.Context, id string, authUID string) error

	// UpdateStatus updates the operational status of a driver.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error
}
