// fields.go provides request field validation helpers used by the API handlers
// before any row is written: required fields and identifier format checks.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ValidateRequired validates that a required string field is non-empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// ValidateRequiredFields validates a set of required fields at once. Missing
// field names are reported together, sorted, so the caller gets one stable
// message instead of the first failure.
func ValidateRequiredFields(fields map[string]string) error {
	missing := make([]string, 0)
	for field, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}

// ValidateUUID validates that an identifier field is a well-formed UUID
func ValidateUUID(field, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%s is not a valid identifier", field)
	}
	return nil
}

// ValidateDuration validates a contracted duration in years. Zero is allowed;
// it marks a perpetual term on the join row.
func ValidateDuration(years int) error {
	if years < 0 {
		return fmt.Errorf("duration must be zero or a positive number of years")
	}
	return nil
}
