package models

import "time"

// Administrator represents a back-office operator account, independent of
// any customer. PasswordSecret is the bcrypt hash of the supplied secret.
type Administrator struct {
	ID             string    `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"firstName"`
	LastName       string    `db:"last_name" json:"lastName"`
	Login          string    `db:"login" json:"login"`
	Email          string    `db:"email" json:"email"`
	PasswordSecret []byte    `db:"password_secret" json:"-"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
