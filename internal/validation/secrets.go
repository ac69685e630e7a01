// secrets.go decodes the base64-encoded binary fields carried on write
// requests (password secrets, server fingerprints). The decoded bytes are
// stored; the encoded form never leaves the request.
package validation

import (
	"encoding/base64"
	"fmt"
)

// MaxSecretBytes bounds decoded secret and fingerprint payloads.
const MaxSecretBytes = 1024

// DecodeSecret decodes a base64 binary field from a write request
func DecodeSecret(field, encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%s is required", field)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64", field)
	}

	if len(decoded) == 0 {
		return nil, fmt.Errorf("%s decodes to empty data", field)
	}
	if len(decoded) > MaxSecretBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", field, MaxSecretBytes)
	}

	return decoded, nil
}
