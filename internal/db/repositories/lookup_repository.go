// lookup_repository.go implements LookupRepository over the three seeded
// reference tables (license types, statuses, and ledger actions).
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/db/models"
)

// LookupRepository reads the license type, status, and action lookup tables.
// The tables are seeded by migration and have no write path in the API.
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository creates a new LookupRepository
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// GetTypeByID retrieves a license type by ID. Returns (nil, nil) when absent.
func (r *LookupRepository) GetTypeByID(ctx context.Context, id string) (*models.LicenseType, error) {
	var lt models.LicenseType
	err := r.db.GetContext(ctx, &lt, `SELECT id, name, description FROM license_types WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license type: %w", err)
	}
	return &lt, nil
}

// ListTypes retrieves all license types
func (r *LookupRepository) ListTypes(ctx context.Context) ([]*models.LicenseType, error) {
	types := make([]*models.LicenseType, 0)
	err := r.db.SelectContext(ctx, &types, `SELECT id, name, description FROM license_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list license types: %w", err)
	}
	return types, nil
}

// GetStatusByID retrieves a license status by ID. Returns (nil, nil) when absent.
func (r *LookupRepository) GetStatusByID(ctx context.Context, id string) (*models.LicenseStatus, error) {
	var ls models.LicenseStatus
	err := r.db.GetContext(ctx, &ls, `SELECT id, status, description FROM license_statuses WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license status: %w", err)
	}
	return &ls, nil
}

// GetStatusByName retrieves a license status by its status name. The
// lifecycle service resolves the seeded states through this.
func (r *LookupRepository) GetStatusByName(ctx context.Context, name string) (*models.LicenseStatus, error) {
	var ls models.LicenseStatus
	err := r.db.GetContext(ctx, &ls, `SELECT id, status, description FROM license_statuses WHERE status = $1`, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license status by name: %w", err)
	}
	return &ls, nil
}

// ListStatuses retrieves all license statuses
func (r *LookupRepository) ListStatuses(ctx context.Context) ([]*models.LicenseStatus, error) {
	statuses := make([]*models.LicenseStatus, 0)
	err := r.db.SelectContext(ctx, &statuses, `SELECT id, status, description FROM license_statuses ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to list license statuses: %w", err)
	}
	return statuses, nil
}

// GetActionByID retrieves a ledger action by ID. Returns (nil, nil) when absent.
func (r *LookupRepository) GetActionByID(ctx context.Context, id string) (*models.LicenseAction, error) {
	var la models.LicenseAction
	err := r.db.GetContext(ctx, &la, `SELECT id, name FROM license_actions WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license action: %w", err)
	}
	return &la, nil
}

// ListActions retrieves all ledger actions
func (r *LookupRepository) ListActions(ctx context.Context) ([]*models.LicenseAction, error) {
	actions := make([]*models.LicenseAction, 0)
	err := r.db.SelectContext(ctx, &actions, `SELECT id, name FROM license_actions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list license actions: %w", err)
	}
	return actions, nil
}
