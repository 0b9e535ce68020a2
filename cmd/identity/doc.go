// Package identity implements Hub's User store: the authentication
// principal backing every session, independent of client type.
//
// It owns username/email normalization, password hashing (delegated to
// cmd/security/password), and the Postgres-backed Store implementation.
// This package is intentionally dependency-light; HTTP concerns live in
// cmd/internal/api.
package identity
