// Package identity password hashing (Argon2id).
//
// This file preserves identity's public API (Argon2idParams,
// DefaultArgon2idParams, HashPassword, VerifyPassword) while using
// cmd/security/password as the single source of truth for Argon2id
// parameters, password policy, and PHC decoding: identity must not
// silently drift from security/password's configuration.
package identity

import (
	"errors"

	"hub/cmd/security/password"
)

// Argon2idParams defines Argon2id hashing parameters for password
// hashing. identity keeps this type for API compatibility; internally it
// is merged with security/password's config (env + defaults) to avoid
// split-brain settings between the two packages.
type Argon2idParams struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
	SaltLen   uint32
	KeyLen    uint32
}

// DefaultArgon2idParams returns the effective defaults based on
// security/password. This is the canonical "default" surface for
// identity callers.
func DefaultArgon2idParams() Argon2idParams {
	cfg, err := password.FromEnv()
	if err != nil {
		// FromEnv only fails on a malformed HUB_ env var; fall back to a
		// known-good default rather than refusing to hash at all.
		cfg = password.DefaultConfig()
	}

	return Argon2idParams{
		MemoryKiB: cfg.Params.MemoryKiB,
		Time:      cfg.Params.Iterations,
		Threads:   cfg.Params.Parallelism,
		SaltLen:   cfg.Params.SaltLength,
		KeyLen:    cfg.Params.KeyLength,
	}
}

// HashPassword returns a PHC-style Argon2id hash string. identity keeps a
// historical floor of 8 characters regardless of env policy; env may
// only tighten it further, never loosen it below 8.
//
// identifiers, when given, are the account's own username/email so
// registration can reject a password that's just the player's handle
// (see password.Validate). UpdatePassword callers omit it: a password
// change already requires the caller's old password, a stronger gate.
func HashPassword(passwordPlain string, p Argon2idParams, identifiers ...string) (string, error) {
	if len(passwordPlain) < 8 {
		return "", errors.New("password too short")
	}

	cfg, err := password.FromEnv()
	if err != nil {
		return "", err
	}

	if cfg.Policy.MinLength < 8 {
		cfg.Policy.MinLength = 8
	}
	if cfg.Policy.MaxLength <= 0 {
		cfg.Policy.MaxLength = 256
	}

	cfg.Params = mergeIdentityParams(cfg.Params, p)

	enc, err := cfg.Hash(passwordPlain, identifiers...)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort):
			return "", errors.New("password too short")
		case errors.Is(err, password.ErrPasswordTooLong):
			return "", errors.New("password too long")
		case errors.Is(err, password.ErrWeakPassword):
			return "", errors.New("weak password")
		case errors.Is(err, password.ErrPasswordMatchesIdentifier):
			return "", errors.New("password must not match your username or email")
		default:
			return "", err
		}
	}

	return enc, nil
}

// VerifyPassword checks a password against a PHC Argon2id hash.
func VerifyPassword(passwordPlain string, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}

	if cfg.Policy.MinLength < 8 {
		cfg.Policy.MinLength = 8
	}
	if cfg.Policy.MaxLength <= 0 {
		cfg.Policy.MaxLength = 256
	}

	ok, err := cfg.Verify(encodedPHC, passwordPlain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return false, errors.New("invalid argon2id hash format")
		}
		return false, err
	}
	return ok, nil
}

// mergeIdentityParams applies non-zero overrides from p onto base, then
// clamps the result to argon2's sane minima.
func mergeIdentityParams(base password.Argon2idParams, p Argon2idParams) password.Argon2idParams {
	if p.MemoryKiB != 0 {
		base.MemoryKiB = p.MemoryKiB
	}
	if p.Time != 0 {
		base.Iterations = p.Time
	}
	if p.Threads != 0 {
		base.Parallelism = p.Threads
	}
	if p.SaltLen != 0 {
		base.SaltLength = p.SaltLen
	}
	if p.KeyLen != 0 {
		base.KeyLength = p.KeyLen
	}

	if base.Parallelism == 0 {
		base.Parallelism = 1
	}
	if base.Iterations == 0 {
		base.Iterations = 1
	}
	if base.MemoryKiB < 8*1024 {
		base.MemoryKiB = 8 * 1024
	}
	if base.SaltLength < 8 {
		base.SaltLength = 16
	}
	if base.KeyLength < 16 {
		base.KeyLength = 32
	}

	return base
}
