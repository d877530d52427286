package domain

import "time"

// User is one authenticated principal, scoped to a single org per spec.md
// §4.1's principal model. Role is a security.Role value stored as a plain
// string so this package never depends on pkg/security.
type User struct {
	ID           string
	OrgID        string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Org is one tenant organization.
type Org struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
