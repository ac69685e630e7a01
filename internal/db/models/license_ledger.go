package models

import "time"

// LicenseLedger is a discrete activity event tied to a license, an optional
// server, and an action kind. This is the legacy history subsystem: the
// lifecycle service records to LicenseAudit instead, and nothing writes
// ledger rows implicitly. The CRUD surface remains for older tooling.
type LicenseLedger struct {
	ID              string     `db:"id" json:"id"`
	LicenseID       string     `db:"license_id" json:"licenseId"`
	ServerID        *string    `db:"server_id" json:"serverId,omitempty"`
	ActivityDate    time.Time  `db:"activity_date" json:"activityDate"`
	LicenseActionID string     `db:"license_action_id" json:"licenseActionId"`
	Comment         *string    `db:"comment" json:"comment,omitempty"`
	ExpirationDate  *time.Time `db:"expiration_date" json:"expirationDate,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}
