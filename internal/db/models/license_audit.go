package models

import "time"

// LicenseAudit is one row of the canonical audit trail. The lifecycle
// service appends a row on every status transition; rows are read-only and
// queried newest-first by license. The license reference is stored under
// the license_id_ref column.
type LicenseAudit struct {
	AuditID         string    `db:"audit_id" json:"auditId"`
	LicenseIDRef    string    `db:"license_id_ref" json:"licenseId"`
	UniqueID        *string   `db:"unique_id" json:"uniqueId,omitempty"`
	ExternalName    *string   `db:"external_name" json:"externalName,omitempty"`
	LicenseStatusID string    `db:"license_status_id" json:"licenseStatusId"`
	TypeID          string    `db:"type_id" json:"typeId"`
	Comment         *string   `db:"comment" json:"comment,omitempty"`
	ServerID        *string   `db:"server_id" json:"serverId,omitempty"`
	UpdatedBy       *string   `db:"updated_by" json:"updatedBy,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}
