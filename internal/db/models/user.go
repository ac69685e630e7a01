package models

import "time"

// User represents a customer-side account. PasswordSecret holds the bcrypt
// hash of the caller-supplied secret and is write-only: it is excluded from
// JSON marshalling and never selected into list responses.
type User struct {
	ID             string    `db:"id" json:"id"`
	CustomerID     string    `db:"customer_id" json:"customerId"`
	FirstName      string    `db:"first_name" json:"firstName"`
	LastName       string    `db:"last_name" json:"lastName"`
	Login          string    `db:"login" json:"login"`
	Email          string    `db:"email" json:"email"`
	PasswordSecret []byte    `db:"password_secret" json:"-"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
