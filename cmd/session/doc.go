// Package session implements Hub's per-client-type session store.
//
// A session row is the server-side anchor for one RefreshToken: its
// uuid appears in the token's "sess" claim, its token column is the
// token's "jti", and a user holds at most one row per client type
// (web, game, mobile), enforced by a UNIQUE(sub, ct) constraint.
//
// Rotation and revocation policy live in cmd/auth; this package only
// provides the storage primitives they're built on.
package session
