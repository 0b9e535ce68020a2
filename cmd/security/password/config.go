package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls password validation and anti-DoS boundaries for Hub
// accounts. A Hub account backs sessions across every client type (web,
// game, mobile), so one compromised password costs a player all three at
// once; Policy is deliberately stricter than a single-surface login would
// need.
type Policy struct {
	MinLength int
	MaxLength int
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns a strong baseline suitable for the Hub identity
// service. Values are intentionally conservative and can be overridden
// via env.
func DefaultConfig() Config {
	// CPU-aware parallelism, clamped to [1..4] so a container with a
	// generous core count doesn't turn every login into a CPU spike.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,      // 64 MiB
			Iterations:  3,              // reasonable default for interactive logins
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
	}
}

// envBinding applies one environment variable onto cfg when it is set.
type envBinding struct {
	key   string
	apply func(cfg *Config, raw string) error
}

func envBindings() []envBinding {
	return []envBinding{
		{"HUB_PASSWORD_MIN_LEN", func(cfg *Config, raw string) error {
			n, err := atoiPositiveInt(raw, 1, 1024)
			if err != nil {
				return err
			}
			cfg.Policy.MinLength = n
			return nil
		}},
		{"HUB_PASSWORD_MAX_LEN", func(cfg *Config, raw string) error {
			n, err := atoiPositiveInt(raw, 1, 4096)
			if err != nil {
				return err
			}
			cfg.Policy.MaxLength = n
			return nil
		}},
		{"HUB_PASSWORD_REJECT_VERY_WEAK", func(cfg *Config, raw string) error {
			b, err := parseBool(raw)
			if err != nil {
				return err
			}
			cfg.Policy.RejectVeryWeak = b
			return nil
		}},
		{"HUB_ARGON2_MEMORY_KIB", func(cfg *Config, raw string) error {
			u, err := atou32(raw, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
			if err != nil {
				return err
			}
			cfg.Params.MemoryKiB = u
			return nil
		}},
		{"HUB_ARGON2_ITERATIONS", func(cfg *Config, raw string) error {
			u, err := atou32(raw, 1, 20)
			if err != nil {
				return err
			}
			cfg.Params.Iterations = u
			return nil
		}},
		{"HUB_ARGON2_PARALLELISM", func(cfg *Config, raw string) error {
			u, err := atou32(raw, 1, 64)
			if err != nil {
				return err
			}
			p, err := u32ToU8(u)
			if err != nil {
				return err
			}
			cfg.Params.Parallelism = p
			return nil
		}},
		{"HUB_ARGON2_SALT_LEN", func(cfg *Config, raw string) error {
			u, err := atou32(raw, 8, 64)
			if err != nil {
				return err
			}
			cfg.Params.SaltLength = u
			return nil
		}},
		{"HUB_ARGON2_KEY_LEN", func(cfg *Config, raw string) error {
			u, err := atou32(raw, 16, 64)
			if err != nil {
				return err
			}
			cfg.Params.KeyLength = u
			return nil
		}},
	}
}

// FromEnv loads config from environment variables, applying each binding
// in envBindings over DefaultConfig. See envBindings for the full surface
// (HUB_PASSWORD_* and HUB_ARGON2_*).
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	for _, b := range envBindings() {
		v, ok := os.LookupEnv(b.key)
		if !ok {
			continue
		}
		if err := b.apply(&cfg, v); err != nil {
			return Config{}, fmt.Errorf("%s: %w", b.key, err)
		}
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

func atoiPositiveInt(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}

	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes", "on", "ON", "On":
		return true, nil
	case "0", "false", "FALSE", "False", "no", "NO", "No", "off", "OFF", "Off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
