package session

import (
	"context"
	"time"

	"hub/cmd/token"
)

// Row is one session: the server-side anchor for a single RefreshToken
// owned by sub under client type Ct.
type Row struct {
	UUID      string
	Sub       string
	Token     string // also the RefreshToken's jti
	Ct        token.ClientType
	Exp       time.Time
	UpdatedAt time.Time
	CreatedAt time.Time
}

// Lookup selects which column FindBy matches against.
type Lookup int

const (
	ByUUID Lookup = iota
	BySub
	ByToken
)

// Store persists sessions, one row per (sub, ct).
type Store interface {
	// New upserts the session for (sub, ct): if one already exists it is
	// replaced with a fresh uuid/token/exp, otherwise a row is inserted.
	// This is the single entry point login and revoke_all use to hand
	// the caller a clean session.
	New(ctx context.Context, now time.Time, sub string, ct token.ClientType, exp time.Time) (Row, error)

	// FindBy looks up the session for ct matching the given column.
	FindBy(ctx context.Context, ct token.ClientType, by Lookup, value string) (Row, error)

	// Refresh rotates a session's token (to a fresh uuid) and advances
	// its expiry, returning the new token value. Used when the auth
	// state machine decides a refresh token is due for rotation.
	Refresh(ctx context.Context, ct token.ClientType, uuid string, newExp time.Time) (newToken string, err error)

	// Delete removes a single session by uuid. Idempotent: deleting an
	// absent row is not an error.
	Delete(ctx context.Context, ct token.ClientType, uuid string) error

	// DeleteAllForSub removes sub's session row, if any, across all
	// three client types. Used by revoke_all.
	DeleteAllForSub(ctx context.Context, sub string) error
}
