package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token string cannot be parsed as a
	// compact JWT at all.
	ErrMalformed = errors.New("token: malformed")

	// ErrSignature is returned when a token parses but fails EdDSA
	// signature verification against the configured public key.
	ErrSignature = errors.New("token: invalid signature")

	// ErrExpired is returned when a token's exp claim is in the past
	// (beyond the configured clock-skew leeway).
	ErrExpired = errors.New("token: expired")

	// ErrNotYetValid is returned when a token's nbf claim is in the
	// future (beyond the configured clock-skew leeway).
	ErrNotYetValid = errors.New("token: not yet valid")
)

// classify maps a jwt/v5 parse error onto Hub's own sentinel kinds so
// callers never need to import golang-jwt directly.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return ErrSignature
	default:
		return ErrMalformed
	}
}
