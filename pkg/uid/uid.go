// Package uid generates the identifiers used for scan sessions, journal
// entries, and request correlation.
package uid

import "github.com/google/uuid"

// New returns a fresh UUIDv4 string.
func New() string {
	return uuid.New().String()
}
