// Package models defines the database entities for the license back office.
// Structs carry db tags for sqlx scanning and json tags for API responses;
// secret fields (password secrets, server fingerprints) are tagged json:"-"
// so they can never appear in a response body.
package models

import "time"

// Customer represents a business that owns purchase orders and users
type Customer struct {
	ID               string    `db:"id" json:"id"`
	BusinessName     string    `db:"business_name" json:"businessName"`
	ContactName      string    `db:"contact_name" json:"contactName"`
	ContactEmail     *string   `db:"contact_email" json:"contactEmail,omitempty"`
	ContactPhone     *string   `db:"contact_phone" json:"contactPhone,omitempty"`
	BusinessAddress1 *string   `db:"business_address1" json:"businessAddress1,omitempty"`
	BusinessAddress2 *string   `db:"business_address2" json:"businessAddress2,omitempty"`
	BusinessCity     *string   `db:"business_city" json:"businessCity,omitempty"`
	BusinessState    *string   `db:"business_state" json:"businessState,omitempty"`
	BusinessZip      *string   `db:"business_zip" json:"businessZip,omitempty"`
	BusinessCountry  *string   `db:"business_country" json:"businessCountry,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
