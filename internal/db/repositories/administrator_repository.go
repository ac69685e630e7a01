// administrator_repository.go implements AdministratorRepository for
// back-office operator accounts.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/db/models"
)

// AdministratorRepository handles administrator database operations
type AdministratorRepository struct {
	db *sqlx.DB
}

// NewAdministratorRepository creates a new AdministratorRepository
func NewAdministratorRepository(db *sqlx.DB) *AdministratorRepository {
	return &AdministratorRepository{db: db}
}

const administratorColumns = `id, first_name, last_name, login, email,
	password_secret, is_active, created_at, updated_at`

// Create inserts a new administrator
func (r *AdministratorRepository) Create(ctx context.Context, admin *models.Administrator) error {
	admin.ID = uuid.New().String()
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = admin.CreatedAt

	query := `
		INSERT INTO administrators (
			id, first_name, last_name, login, email,
			password_secret, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.FirstName,
		admin.LastName,
		admin.Login,
		admin.Email,
		admin.PasswordSecret,
		admin.IsActive,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves an administrator by ID. Returns (nil, nil) when no row exists.
func (r *AdministratorRepository) GetByID(ctx context.Context, id string) (*models.Administrator, error) {
	query := `SELECT ` + administratorColumns + ` FROM administrators WHERE id = $1`

	var admin models.Administrator
	err := r.db.GetContext(ctx, &admin, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get administrator: %w", err)
	}

	return &admin, nil
}

// GetByLogin retrieves an administrator by login. Used by the login
// endpoint; returns (nil, nil) when no row exists.
func (r *AdministratorRepository) GetByLogin(ctx context.Context, login string) (*models.Administrator, error) {
	query := `SELECT ` + administratorColumns + ` FROM administrators WHERE login = $1`

	var admin models.Administrator
	err := r.db.GetContext(ctx, &admin, query, login)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get administrator by login: %w", err)
	}

	return &admin, nil
}

// Update persists changed administrator fields
func (r *AdministratorRepository) Update(ctx context.Context, admin *models.Administrator) error {
	admin.UpdatedAt = time.Now()

	query := `
		UPDATE administrators
		SET first_name = $2, last_name = $3, login = $4, email = $5,
		    password_secret = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.FirstName,
		admin.LastName,
		admin.Login,
		admin.Email,
		admin.PasswordSecret,
		admin.IsActive,
		admin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update administrator: %w", translateError(err))
	}

	return nil
}

// Delete removes an administrator
func (r *AdministratorRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM administrators WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete administrator: %w", translateError(err))
	}
	return nil
}

// List retrieves all administrators ordered by login
func (r *AdministratorRepository) List(ctx context.Context) ([]*models.Administrator, error) {
	query := `SELECT ` + administratorColumns + ` FROM administrators ORDER BY login`

	admins := make([]*models.Administrator, 0)
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, fmt.Errorf("failed to list administrators: %w", err)
	}

	return admins, nil
}
