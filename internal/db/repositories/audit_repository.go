// audit_repository.go implements AuditRepository over the canonical license
// audit trail. Rows are appended by the lifecycle service (through
// LicenseRepository.UpdateWithAudit) and read here, newest first.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/db/models"
)

// AuditRepository handles license audit database operations
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = `audit_id, license_id_ref, unique_id, external_name,
	license_status_id, type_id, comment, server_id, updated_by, created_at`

// Create appends an audit row outside a lifecycle transaction (e.g. the
// initial Created entry when a license is added to a purchase order).
func (r *AuditRepository) Create(ctx context.Context, audit *models.LicenseAudit) error {
	audit.AuditID = uuid.New().String()
	audit.CreatedAt = time.Now()

	query := `
		INSERT INTO license_audits (
			audit_id, license_id_ref, unique_id, external_name,
			license_status_id, type_id, comment, server_id, updated_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
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
		return fmt.Errorf("failed to create audit entry: %w", translateError(err))
	}

	return nil
}

// ListByLicense retrieves the audit history for a license, newest first.
func (r *AuditRepository) ListByLicense(ctx context.Context, licenseID string) ([]*models.LicenseAudit, error) {
	query := `SELECT ` + auditColumns + `
		FROM license_audits
		WHERE license_id_ref = $1
		ORDER BY created_at DESC`

	audits := make([]*models.LicenseAudit, 0)
	if err := r.db.SelectContext(ctx, &audits, query, licenseID); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return audits, nil
}

// List retrieves all audit entries, newest first.
func (r *AuditRepository) List(ctx context.Context) ([]*models.LicenseAudit, error) {
	query := `SELECT ` + auditColumns + ` FROM license_audits ORDER BY created_at DESC`

	audits := make([]*models.LicenseAudit, 0)
	if err := r.db.SelectContext(ctx, &audits, query); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return audits, nil
}
