package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls the HTTP adapter layer's behavior: body limits, cookie
// attributes, and the descriptor returned from /status and /.
type Config struct {
	MaxBodyBytes int64

	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	HubName    string
	HubVersion string
	APIVersion string
	Mode       string
}

// LoadConfigFromEnv loads the HTTP adapter config from HUB_-prefixed
// environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:   envInt64("HUB_MAX_BODY_BYTES", 1<<20), // 1 MiB
		CookieName:     envString("HUB_REFRESH_COOKIE_NAME", "hub-rt"),
		CookieDomain:   strings.TrimSpace(os.Getenv("HUB_COOKIE_DOMAIN")),
		CookiePath:     envString("HUB_COOKIE_PATH", "/"),
		CookieSecure:   envBool("HUB_COOKIE_SECURE", true),
		CookieSameSite: parseSameSite(envString("HUB_COOKIE_SAMESITE", "lax")),
		HubName:        envString("HUB_NAME", "hub"),
		HubVersion:     envString("HUB_VERSION", "dev"),
		APIVersion:     envString("HUB_API_VERSION", "1"),
		Mode:           envString("HUB_MODE", "production"),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		cfg.CookieName = "hub-rt"
	}
	if strings.TrimSpace(cfg.CookiePath) == "" {
		cfg.CookiePath = "/"
	}
	switch mode := strings.ToLower(strings.TrimSpace(cfg.Mode)); mode {
	case "testing", "debug":
		cfg.Mode = mode
	default:
		cfg.Mode = "production"
	}
	// SameSite=None cookies are ignored by modern browsers unless Secure=true.
	if cfg.CookieSameSite == http.SameSiteNoneMode {
		cfg.CookieSecure = true
	}

	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "default":
		return http.SameSiteDefaultMode
	case "lax":
		fallthrough
	default:
		return http.SameSiteLaxMode
	}
}
