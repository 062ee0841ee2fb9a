package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rideid/internal/domain"
	"rideid/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `id, COALESCE(name, ''), COALESCE(phone, ''), status,
	COALESCE(vehicle_model, ''), COALESCE(vehicle_registration, ''), COALESCE(vehicle_color, ''),
	COALESCE(auth_uid, ''), COALESCE(temp_user_id, ''), created_at, updated_at`

// Create adds a new driver record.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `INSERT INTO drivers
		(id, name, phone, status, vehicle_model, vehicle_registration, vehicle_color,
		 auth_uid, temp_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, $11)`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID, driver.Name, driver.Phone, driver.Status,
		driver.Vehicle.Model, driver.Vehicle.Registration, driver.Vehicle.Color,
		driver.AuthUID, driver.TempUserID, driver.CreatedAt, driver.UpdatedAt,
	)
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves a driver by phone number.
func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE phone = $1 LIMIT 1`
	return scanDriver(r.q.QueryRowContext(ctx, query, phone))
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		err := rows.Scan(
			&driver.ID, &driver.Name, &driver.Phone, &driver.Status,
			&driver.Vehicle.Model, &driver.Vehicle.Registration, &driver.Vehicle.Color,
			&driver.AuthUID, &driver.TempUserID, &driver.CreatedAt, &driver.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}
	return drivers, rows.Err()
}

// SetAuthLink sets the provider subject id and clears the placeholder
// back-reference.
func (r *DriverRepository) SetAuthLink(ctx context.Context, id string, authUID string) error {
	query := `UPDATE drivers SET auth_uid = $2, temp_user_id = NULL, updated_at = $3 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, authUID, time.Now())
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// UpdateStatus updates the operational status of a driver.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `UPDATE drivers SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func scanDriver(row *sql.Row) (*domain.Driver, error) {
	var driver domain.Driver
	err := row.Scan(
		&driver.ID, &driver.Name, &driver.Phone, &driver.Status,
		&driver.Vehicle.Model, &driver.Vehicle.Registration, &driver.Vehicle.Color,
		&driver.AuthUID, &driver.TempUserID, &driver.CreatedAt, &driver.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &driver, nil
}

// Ensure interface is satisfied.
var _ repository.DriverRepository = (*DriverRepository)(nil)
