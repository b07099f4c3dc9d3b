package domain

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // argon2 encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the caller resolved from a verified credential. It is
// reconstructed on every request and never persisted; the role always
// reflects the user store, not the token.
type Identity struct {
	ID    string
	Email string
	Role  Role
}

// IsAdmin reports whether the identity carries the universal override role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
