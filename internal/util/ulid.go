package util

import (
	"regexp"

	"github.com/oklog/ulid/v2"
)

var ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// NewULID generates a new ULID string.
// ulid.Make uses a process-wide monotonic entropy source that is safe for concurrent use.
func NewULID() string {
	return ulid.Make().String()
}

// IsValidULID checks if the string is a canonical ULID (26 chars, Crockford base32).
func IsValidULID(s string) bool {
	if !ulidPattern.MatchString(s) {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}
