package rooms

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const maxIDLength = 64

var ErrInvalidID = errors.New("invalid room id")

// ValidateID trims a client-supplied room id and rejects empty, oversized
// or control-character ids.
func ValidateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(id) > maxIDLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidID, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return "", fmt.Errorf("%w: contains %q", ErrInvalidID, r)
		}
	}
	return id, nil
}
