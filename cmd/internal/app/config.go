package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string
	// LogVerbose forces source-file:line attribution onto every log line,
	// not just debug-and-below; useful when chasing a bug in a deployed
	// environment without dropping the level to debug.
	LogVerbose bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DBAddr     string
	DBPort     int
	DBUser     string
	DBPass     string
	DBName     string
	DBPoolMin  int32
	DBPoolMax  int32
	DBTimeout  time.Duration

	// PrivateKeySeed is a 64-character hex-encoded Ed25519 seed. When
	// empty, a fresh random keypair is generated at startup and tokens
	// signed by it do not survive a restart.
	PrivateKeySeed string

	SSLCert string
	SSLKey  string

	Mode string
}

// LoadConfig loads Config from HUB_-prefixed environment variables with
// defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:   EnvString("HUB_ADDR", "0.0.0.0") + ":" + EnvString("HUB_PORT", "8080"),
		LogLevel:   EnvString("HUB_LOG_LEVEL", "info"),
		LogFormat:  EnvString("HUB_LOG_FORMAT", "auto"),
		LogVerbose: EnvBool("HUB_LOG_VERBOSE", false),

		ReadHeaderTimeout: EnvDuration("HUB_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("HUB_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("HUB_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("HUB_HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    EnvInt("HUB_HTTP_MAX_HEADER_BYTES", 1<<20),

		DBAddr:    EnvString("HUB_DB_ADDR", ""),
		DBPort:    EnvInt("HUB_DB_PORT", 5432),
		DBUser:    EnvString("HUB_DB_USER", "hub"),
		DBPass:    EnvString("HUB_DB_PASS", ""),
		DBName:    EnvString("HUB_DB_NAME", "hub"),
		DBPoolMin: EnvInt32("HUB_DB_POOL_MIN", 0),
		DBPoolMax: EnvInt32("HUB_DB_POOL_MAX", 10),
		DBTimeout: EnvDuration("HUB_DB_TIMEOUT", 3*time.Second),

		PrivateKeySeed: EnvString("HUB_PRIVATE_KEY", ""),

		SSLCert: EnvString("HUB_SSL_CERT", ""),
		SSLKey:  EnvString("HUB_SSL_KEY", ""),

		Mode: EnvString("HUB_MODE", "production"),
	}
}

// DBEnabled reports whether enough configuration is present to reach a
// Postgres database.
func (c Config) DBEnabled() bool {
	return c.DBAddr != ""
}
