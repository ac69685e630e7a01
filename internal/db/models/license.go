package models

import "time"

// License represents a sellable license. A license is independent of any
// single purchase order; it is linked to purchase orders through
// purchase_order_licenses join rows, and the only duration the system knows
// is the sum of those rows. UniqueID is generated at creation when absent
// and immutable afterwards.
type License struct {
	ID                string     `db:"id" json:"id"`
	UniqueID          string     `db:"unique_id" json:"uniqueId"`
	ExternalName      *string    `db:"external_name" json:"externalName,omitempty"`
	TypeID            string     `db:"type_id" json:"typeId"`
	StatusID          string     `db:"status_id" json:"statusId"`
	ServerID          *string    `db:"server_id" json:"serverId,omitempty"`
	RequestedServerID *string    `db:"requested_server_id" json:"requestedServerId,omitempty"`
	ActivationDate    *time.Time `db:"activation_date" json:"activationDate,omitempty"`
	ExpirationDate    *time.Time `db:"expiration_date" json:"expirationDate,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// LicenseWithDuration is a License joined with its type name and the summed
// contracted duration within a purchase-order query scope. TotalDuration is
// derived by the aggregation query, never stored.
type LicenseWithDuration struct {
	License
	TypeName      string `db:"type_name" json:"typeName"`
	TotalDuration int    `db:"total_duration" json:"totalDuration"`
}
