// Package auth implements Hub's authentication state machine: login,
// refresh (with rotation), revoke, revoke_all, and PlayerIdentityToken
// issuance.
//
// It is pure business logic over identity.Store, session.Store, and
// token.Codec — no net/http import here. cmd/internal/api adapts these
// operations onto the HTTP surface and maps returned error kinds onto
// status codes.
package auth
