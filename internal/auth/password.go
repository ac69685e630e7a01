// password.go wraps bcrypt hashing for administrator and user password
// secrets. Clients submit the raw secret base64-encoded; only the bcrypt hash
// is ever stored.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a raw password secret with bcrypt
func HashPassword(secret []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
}

// CheckPassword compares a raw password secret against a stored bcrypt hash.
// Returns true only when they match.
func CheckPassword(hash, secret []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, secret) == nil
}
