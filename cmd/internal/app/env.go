package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// lookupTrimmed reads key and reports whether it was set to a non-blank
// value. Every Env* helper, and so all of LoadConfig (HUB_ADDR, HUB_DB_*,
// HUB_LOG_*, ...), goes through this one lookup so "unset" and "set to
// whitespace" are always treated the same way: fall back to the default.
func lookupTrimmed(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", false
	}
	return v, true
}

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	v, ok := lookupTrimmed(key)
	if !ok {
		return def
	}
	return v
}

// EnvBool reads a bool env var with a default.
func EnvBool(key string, def bool) bool {
	v, ok := lookupTrimmed(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvInt reads a positive int env var with a default.
func EnvInt(key string, def int) int {
	v, ok := lookupTrimmed(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// EnvInt32 reads an int32 env var with a default.
func EnvInt32(key string, def int32) int32 {
	v, ok := lookupTrimmed(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}

// EnvDuration reads a duration env var with a default.
func EnvDuration(key string, def time.Duration) time.Duration {
	v, ok := lookupTrimmed(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
