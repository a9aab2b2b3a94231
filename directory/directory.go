// Package directory holds what the account store adapters share.
//
// Two adapters implement portalAuth.UserDirectory: memory, for tests and
// single-process deployments, and bundir, backed by PostgreSQL or SQLite.
package directory

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateIdentifier is returned when an account with the same identifier exists.
	ErrDuplicateIdentifier = errors.New("directory: identifier already registered")
	// ErrInvalidAccount is returned when an account is missing required fields.
	ErrInvalidAccount = errors.New("directory: invalid account")
	// ErrNotFound is returned by TouchLastLogin for an unknown subject.
	ErrNotFound = errors.New("directory: account not found")
)

// NormalizeIdentifier is the lookup form of a login identifier.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
