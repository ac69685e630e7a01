// license_repository.go implements LicenseRepository, including the
// transactional write paths that keep licenses, join rows, and audit rows
// consistent: a license is never persisted without its join row when created
// through a purchase order, and no lifecycle change lands without its audit row.
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

// LicenseRepository handles license database operations
type LicenseRepository struct {
	db *sqlx.DB
}

// NewLicenseRepository creates a new LicenseRepository
func NewLicenseRepository(db *sqlx.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

const licenseColumns = `id, unique_id, external_name, type_id, status_id, server_id,
	requested_server_id, activation_date, expiration_date, created_at, updated_at`

const insertLicenseQuery = `
	INSERT INTO licenses (
		id, unique_id, external_name, type_id, status_id, server_id,
		requested_server_id, activation_date, expiration_date, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

const insertJoinRowQuery = `
	INSERT INTO purchase_order_licenses (id, purchase_order_id, license_id, duration)
	VALUES ($1, $2, $3, $4)
`

// prepareForInsert fills generated fields. UniqueID is generated only when
// the caller did not supply one; it is immutable afterwards.
func prepareForInsert(license *models.License) {
	license.ID = uuid.New().String()
	if license.UniqueID == "" {
		license.UniqueID = uuid.New().String()
	}
	license.CreatedAt = time.Now()
	license.UpdatedAt = license.CreatedAt
}

// Create inserts a standalone license row
func (r *LicenseRepository) Create(ctx context.Context, license *models.License) error {
	prepareForInsert(license)

	_, err := r.db.ExecContext(ctx, insertLicenseQuery,
		license.ID,
		license.UniqueID,
		license.ExternalName,
		license.TypeID,
		license.StatusID,
		license.ServerID,
		license.RequestedServerID,
		license.ActivationDate,
		license.ExpirationDate,
		license.CreatedAt,
		license.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create license: %w", translateError(err))
	}

	return nil
}

// CreateWithJoin inserts a license and its purchase-order join row in a
// single transaction. Either both rows are persisted or neither is: a
// license with no join row and a join row pointing at a missing license are
// both invariant violations.
func (r *LicenseRepository) CreateWithJoin(ctx context.Context, license *models.License, purchaseOrderID string, duration int) error {
	prepareForInsert(license)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	_, err = tx.ExecContext(ctx, insertLicenseQuery,
		license.ID,
		license.UniqueID,
		license.ExternalName,
		license.TypeID,
		license.StatusID,
		license.ServerID,
		license.RequestedServerID,
		license.ActivationDate,
		license.ExpirationDate,
		license.CreatedAt,
		license.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create license: %w", translateError(err))
	}

	_, err = tx.ExecContext(ctx, insertJoinRowQuery,
		uuid.New().String(), purchaseOrderID, license.ID, duration)
	if err != nil {
		return fmt.Errorf("failed to link license to purchase order: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit license creation: %w", err)
	}

	return nil
}

// AddJoinRow links an existing license to a purchase order with an
// additional duration row (renewals add rows, they never update old ones).
func (r *LicenseRepository) AddJoinRow(ctx context.Context, purchaseOrderID, licenseID string, duration int) error {
	_, err := r.db.ExecContext(ctx, insertJoinRowQuery,
		uuid.New().String(), purchaseOrderID, licenseID, duration)
	if err != nil {
		return fmt.Errorf("failed to link license to purchase order: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves a license by ID. Returns (nil, nil) when no row exists.
func (r *LicenseRepository) GetByID(ctx context.Context, id string) (*models.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE id = $1`

	var license models.License
	err := r.db.GetContext(ctx, &license, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return &license, nil
}

// Update persists changed license fields. UniqueID is deliberately not in
// the SET list: it is immutable after creation.
func (r *LicenseRepository) Update(ctx context.Context, license *models.License) error {
	license.UpdatedAt = time.Now()

	query := `
		UPDATE licenses
		SET external_name = $2, type_id = $3, status_id = $4, server_id = $5,
		    requested_server_id = $6, activation_date = $7, expiration_date = $8,
		    updated_at = $9
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		license.ID,
		license.ExternalName,
		license.TypeID,
		license.StatusID,
		license.ServerID,
		license.RequestedServerID,
		license.ActivationDate,
		license.ExpirationDate,
		license.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update license: %w", translateError(err))
	}

	return nil
}

// UpdateWithAudit persists a lifecycle change and its audit row in one
// transaction so the audit trail can never miss a transition.
func (r *LicenseRepository) UpdateWithAudit(ctx context.Context, license *models.License, audit *models.LicenseAudit) error {
	license.UpdatedAt = time.Now()
	audit.AuditID = uuid.New().String()
	audit.CreatedAt = time.Now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	query := `
		UPDATE licenses
		SET external_name = $2, type_id = $3, status_id = $4, server_id = $5,
		    requested_server_id = $6, activation_date = $7, expiration_date = $8,
		    updated_at = $9
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, query,
		license.ID,
		license.ExternalName,
		license.TypeID,
		license.StatusID,
		license.ServerID,
		license.RequestedServerID,
		license.ActivationDate,
		license.ExpirationDate,
		license.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update license: %w", translateError(err))
	}

	auditQuery := `
		INSERT INTO license_audits (
			audit_id, license_id_ref, unique_id, external_name,
			license_status_id, type_id, comment, server_id, updated_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, auditQuery,
		audit.AuditID,
		audit.LicenseIDRef,
		audit.UniqueID,
		audit.ExternalName,
		audit.LicenseStatusID,
		audit.TypeID,
		audit.Comment,
		audit.ServerID,
		audit.UpdatedBy,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record license audit: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit license update: %w", err)
	}

	return nil
}

// Delete removes a license. Blocked while join rows, ledger rows, or audit
// rows reference it.
func (r *LicenseRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete license: %w", translateError(err))
	}
	return nil
}

// List retrieves all licenses, newest first
func (r *LicenseRepository) List(ctx context.Context) ([]*models.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses ORDER BY created_at DESC`

	licenses := make([]*models.License, 0)
	if err := r.db.SelectContext(ctx, &licenses, query); err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}

	return licenses, nil
}

// TotalDuration returns the summed contracted duration in years across every
// join row for the license, regardless of purchase order. The lifecycle
// service uses this to compute the expiration date on activation.
func (r *LicenseRepository) TotalDuration(ctx context.Context, licenseID string) (int, error) {
	var total int
	query := `
		SELECT COALESCE(SUM(duration), 0)
		FROM purchase_order_licenses
		WHERE license_id = $1
	`
	if err := r.db.GetContext(ctx, &total, query, licenseID); err != nil {
		return 0, fmt.Errorf("failed to sum license duration: %w", err)
	}
	return total, nil
}
