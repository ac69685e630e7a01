package models

import "time"

// Server represents a machine that licenses are activated against.
// Fingerprint is an opaque binary identity supplied by the machine at
// registration; it is unique and write-only.
type Server struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Fingerprint []byte    `db:"fingerprint" json:"-"`
	CustomerID  *string   `db:"customer_id" json:"customerId,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
