package identity

import (
	"context"
	"time"
)

// Status is a User's account standing.
type Status int

const (
	StatusActive   Status = 0
	StatusInactive Status = 1
	StatusBanned   Status = 2
)

// User is Hub's authentication principal, shared across all client
// types; per-client-type state lives in the session package instead.
type User struct {
	UUID      string
	Username  string
	Email     string
	Password  string // opaque Argon2id PHC hash, never serialized over HTTP
	Status    Status
	Other     map[string]any
	UpdatedAt time.Time
	CreatedAt time.Time
}

// Lookup selects which normalized column FindBy matches against.
type Lookup int

const (
	ByUUID Lookup = iota
	ByUsername
	ByEmail
)

// Store is the User persistence boundary.
type Store interface {
	// Insert creates a new, StatusActive user with a freshly
	// Argon2id-hashed password. Returns ConflictError{Field: "username"}
	// or ConflictError{Field: "email"} on a uniqueness violation.
	Insert(ctx context.Context, now time.Time, username, email, passwordPlain string) (User, error)

	// FindBy looks a user up by uuid, or by normalized, case-insensitive
	// username/email.
	FindBy(ctx context.Context, by Lookup, value string) (User, error)

	// UpdatePassword replaces a user's password hash. Callers must
	// verify the caller's old password before calling this.
	UpdatePassword(ctx context.Context, now time.Time, uuid, newPasswordPlain string) error
}
