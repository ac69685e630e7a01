// ledger_repository.go implements LedgerRepository for the legacy license
// activity ledger. The lifecycle service does not write here; rows come only
// from the explicit ledger endpoints kept for older tooling.
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

// LedgerRepository handles license ledger database operations
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const ledgerColumns = `id, license_id, server_id, activity_date, license_action_id,
	comment, expiration_date, created_at`

// Create inserts a new ledger entry
func (r *LedgerRepository) Create(ctx context.Context, entry *models.LicenseLedger) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO license_ledgers (
			id, license_id, server_id, activity_date, license_action_id,
			comment, expiration_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.LicenseID,
		entry.ServerID,
		entry.ActivityDate,
		entry.LicenseActionID,
		entry.Comment,
		entry.ExpirationDate,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a ledger entry by ID. Returns (nil, nil) when no row exists.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*models.LicenseLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM license_ledgers WHERE id = $1`

	var entry models.LicenseLedger
	err := r.db.GetContext(ctx, &entry, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return &entry, nil
}

// Update persists changed ledger entry fields
func (r *LedgerRepository) Update(ctx context.Context, entry *models.LicenseLedger) error {
	query := `
		UPDATE license_ledgers
		SET license_id = $2, server_id = $3, activity_date = $4,
		    license_action_id = $5, comment = $6, expiration_date = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.LicenseID,
		entry.ServerID,
		entry.ActivityDate,
		entry.LicenseActionID,
		entry.Comment,
		entry.ExpirationDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry: %w", translateError(err))
	}

	return nil
}

// Delete removes a ledger entry
func (r *LedgerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM license_ledgers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", translateError(err))
	}
	return nil
}

// List retrieves ledger entries, newest activity first
func (r *LedgerRepository) List(ctx context.Context) ([]*models.LicenseLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM license_ledgers ORDER BY activity_date DESC`

	entries := make([]*models.LicenseLedger, 0)
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	return entries, nil
}
