package auth

import "time"

// Config controls the auth state machine's policy knobs.
type Config struct {
	// RotationPeriod is how far out from expiry a presented refresh
	// token must be before Refresh rotates it to a new one. A refresh
	// whose remaining lifetime is still above this window is reused
	// as-is.
	RotationPeriod time.Duration
}

// DefaultConfig returns Hub's default auth policy.
func DefaultConfig() Config {
	return Config{
		RotationPeriod: 7 * 24 * time.Hour,
	}
}
