package authapi

import (
	"net/http"
	"testing"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg := LoadConfigFromEnv()

	if cfg.CookieName != "hub-rt" {
		t.Fatalf("unexpected default cookie name: %q", cfg.CookieName)
	}
	if cfg.CookiePath != "/" {
		t.Fatalf("unexpected default cookie path: %q", cfg.CookiePath)
	}
	if cfg.Mode != "production" {
		t.Fatalf("unexpected default mode: %q", cfg.Mode)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected default max body bytes: %d", cfg.MaxBodyBytes)
	}
}

func TestLoadConfigFromEnv_ModeClampedToKnownValues(t *testing.T) {
	t.Setenv("HUB_MODE", "chaos")
	cfg := LoadConfigFromEnv()
	if cfg.Mode != "production" {
		t.Fatalf("expected unknown mode to clamp to production, got %q", cfg.Mode)
	}

	t.Setenv("HUB_MODE", "debug")
	cfg = LoadConfigFromEnv()
	if cfg.Mode != "debug" {
		t.Fatalf("expected debug mode to pass through, got %q", cfg.Mode)
	}
}

func TestLoadConfigFromEnv_SameSiteNoneForcesSecure(t *testing.T) {
	t.Setenv("HUB_COOKIE_SAMESITE", "none")
	t.Setenv("HUB_COOKIE_SECURE", "false")

	cfg := LoadConfigFromEnv()

	if cfg.CookieSameSite != http.SameSiteNoneMode {
		t.Fatalf("expected SameSite=None, got %v", cfg.CookieSameSite)
	}
	if !cfg.CookieSecure {
		t.Fatalf("SameSite=None requires Secure=true")
	}
}

func TestParseSameSite(t *testing.T) {
	tests := []struct {
		in   string
		want http.SameSite
	}{
		{in: "strict", want: http.SameSiteStrictMode},
		{in: "lax", want: http.SameSiteLaxMode},
		{in: "none", want: http.SameSiteNoneMode},
		{in: "default", want: http.SameSiteDefaultMode},
		{in: "unknown", want: http.SameSiteLaxMode},
	}

	for _, tc := range tests {
		got := parseSameSite(tc.in)
		if got != tc.want {
			t.Fatalf("parseSameSite(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}
