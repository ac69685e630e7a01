package models

// Names of the seeded license statuses. The lifecycle state machine in
// internal/services moves licenses between these states.
const (
	StatusAvailable           = "Available"
	StatusActivationRequested = "Activation Requested"
	StatusActivated           = "Activated"
	StatusDeactivated         = "Deactivated"
)

// LicenseTypePerpetual is the seeded type whose licenses never expire.
const LicenseTypePerpetual = "Perpetual"

// LicenseType enumerates the kinds of license terms (e.g. Annual, Perpetual)
type LicenseType struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// LicenseStatus enumerates license lifecycle states
type LicenseStatus struct {
	ID          string  `db:"id" json:"id"`
	Status      string  `db:"status" json:"status"`
	Description *string `db:"description" json:"description,omitempty"`
}

// LicenseAction enumerates ledger action kinds (legacy ledger subsystem)
type LicenseAction struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
