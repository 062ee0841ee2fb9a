package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rideid/internal/domain"
	"rideid/internal/repository"
)

// IdentityRepository is a PostgreSQL implementation of repository.IdentityRepository.
type IdentityRepository struct {
	q  Querier
	db *sql.DB
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{q: db, db: db}
}

// NewIdentityRepositoryWithTx creates an identity repository using a transaction.
func NewIdentityRepositoryWithTx(tx *sql.Tx) *IdentityRepository {
	return &IdentityRepository{q: tx}
}

const identityColumns = `id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''),
	is_verified, status, COALESCE(role, ''), is_admin, is_driver,
	COALESCE(driver_id, ''), COALESCE(auth_uid, ''),
	COALESCE(vehicle_model, ''), COALESCE(vehicle_registration, ''), COALESCE(vehicle_color, ''),
	pending_phone_verification, created_at, updated_at`

// Create adds a new identity record.
func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	query := `INSERT INTO identities
		(id, first_name, last_name, email, phone, is_verified, status, role,
		 is_admin, is_driver, driver_id, auth_uid,
		 vehicle_model, vehicle_registration, vehicle_color,
		 pending_phone_verification, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10,
		        NULLIF($11, ''), NULLIF($12, ''), $13, $14, $15, $16, $17, $18)`

	var vehicle domain.VehicleInfo
	if identity.Vehicle != nil {
		vehicle = *identity.Vehicle
	}

	_, err := r.q.ExecContext(ctx, query,
		identity.ID, identity.FirstName, identity.LastName, identity.Email, identity.Phone,
		identity.IsVerified, identity.Status, string(identity.Role),
		identity.LegacyAdmin, identity.LegacyDriver, identity.DriverID, identity.AuthUID,
		vehicle.Model, vehicle.Registration, vehicle.Color,
		identity.PendingPhoneVerification, identity.CreatedAt, identity.UpdatedAt,
	)
	return err
}

// GetByID retrieves an identity by its key.
func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return scanIdentity(r.q.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves an identity by phone number.
func (r *IdentityRepository) GetByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE phone = $1 LIMIT 1`
	return scanIdentity(r.q.QueryRowContext(ctx, query, phone))
}

// Update overwrites an existing identity record.
func (r *IdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	query := `UPDATE identities SET
		first_name = $2, last_name = $3, email = $4, phone = $5,
		is_verified = $6, status = $7, role = NULLIF($8, ''),
		is_admin = $9, is_driver = $10, driver_id = NULLIF($11, ''), auth_uid = NULLIF($12, ''),
		vehicle_model = $13, vehicle_registration = $14, vehicle_color = $15,
		pending_phone_verification = $16, updated_at = $17
		WHERE id = $1`

	var vehicle domain.VehicleInfo
	if identity.Vehicle != nil {
		vehicle = *identity.Vehicle
	}

	res, err := r.q.ExecContext(ctx, query,
		identity.ID, identity.FirstName, identity.LastName, identity.Email, identity.Phone,
		identity.IsVerified, identity.Status, string(identity.Role),
		identity.LegacyAdmin, identity.LegacyDriver, identity.DriverID, identity.AuthUID,
		vehicle.Model, vehicle.Registration, vehicle.Color,
		identity.PendingPhoneVerification, time.Now(),
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// UpdateStatus updates only the account status.
func (r *IdentityRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	query := `UPDATE identities SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Delete removes an identity record.
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM identities WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// ConsumePlaceholder atomically copies the placeholder at tempUserID into a
// linked identity keyed by subjectID and deletes the placeholder. The row
// lock on the placeholder serializes concurrent links: the loser finds no
// row and gets repository.ErrNotFound without writing anything.
func (r *IdentityRepository) ConsumePlaceholder(ctx context.Context, tempUserID, subjectID string) (*domain.Identity, error) {
	if r.db == nil {
		return nil, errors.New("postgres: ConsumePlaceholder requires a *sql.DB repository")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + identityColumns + ` FROM identities
		WHERE id = $1 AND pending_phone_verification FOR UPDATE`
	placeholder, err := scanIdentity(tx.QueryRowContext(ctx, query, tempUserID))
	if err != nil {
		return nil, err
	}

	linked := *placeholder
	linked.ID = subjectID
	linked.AuthUID = subjectID
	linked.PendingPhoneVerification = false
	linked.UpdatedAt = time.Now()

	txRepo := NewIdentityRepositoryWithTx(tx)
	if err := txRepo.Create(ctx, &linked); err != nil {
		return nil, err
	}
	if err := txRepo.Delete(ctx, tempUserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &linked, nil
}

func scanIdentity(row *sql.Row) (*domain.Identity, error) {
	var identity domain.Identity
	var role string
	var vehicle domain.VehicleInfo

	err := row.Scan(
		&identity.ID, &identity.FirstName, &identity.LastName, &identity.Email, &identity.Phone,
		&identity.IsVerified, &identity.Status, &role,
		&identity.LegacyAdmin, &identity.LegacyDriver,
		&identity.DriverID, &identity.AuthUID,
		&vehicle.Model, &vehicle.Registration, &vehicle.Color,
		&identity.PendingPhoneVerification, &identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	identity.Role = domain.Role(role)
	if vehicle != (domain.VehicleInfo{}) {
		identity.Vehicle = &vehicle
	}
	return &identity, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure interface is satisfied.
var _ repository.IdentityRepository = (*IdentityRepository)(nil)
