// user_repository.go implements UserRepository for customer-side user accounts.
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

// UserRepository handles user database operations
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, customer_id, first_name, last_name, login, email,
	password_secret, is_active, created_at, updated_at`

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (
			id, customer_id, first_name, last_name, login, email,
			password_secret, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.CustomerID,
		user.FirstName,
		user.LastName,
		user.Login,
		user.Email,
		user.PasswordSecret,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a user by ID. Returns (nil, nil) when no row exists.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByLogin retrieves a user by login. Returns (nil, nil) when no row exists.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, login)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}

	return &user, nil
}

// Update persists changed user fields. PasswordSecret is written as-is;
// callers that did not receive a new secret must carry the stored one over.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET customer_id = $2, first_name = $3, last_name = $4, login = $5,
		    email = $6, password_secret = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.CustomerID,
		user.FirstName,
		user.LastName,
		user.Login,
		user.Email,
		user.PasswordSecret,
		user.IsActive,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateError(err))
	}

	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", translateError(err))
	}
	return nil
}

// List retrieves all users ordered by login
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY login`

	users := make([]*models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// ListByCustomer retrieves the users belonging to one customer
func (r *UserRepository) ListByCustomer(ctx context.Context, customerID string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE customer_id = $1 ORDER BY login`

	users := make([]*models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, customerID); err != nil {
		return nil, fmt.Errorf("failed to list users for customer: %w", err)
	}

	return users, nil
}
