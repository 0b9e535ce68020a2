// Package app wires the Hub server runtime: config, logging, key material,
// the database pool, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	authapi "hub/cmd/internal/api"
	"hub/cmd/security/keys"
)

// App is the Hub server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth *authapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogVerbose)
	}

	k, err := loadKeys(cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		pool      *pgxpool.Pool
		dbEnabled = cfg.DBEnabled()
	)
	if dbEnabled {
		pool, err = NewDBPool(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		log.Info("db.enabled.postgres_store")
	} else {
		log.Info("db.disabled.no_store")
	}

	authCfg := authapi.LoadConfigFromEnv()
	authHandler, err := authapi.NewHandler(log, pool, authCfg, k, dbEnabled)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    pool,
		dbEnabled: dbEnabled,
		auth:      authHandler,
	}, nil
}

// loadKeys builds the Ed25519 key material used to sign and verify every
// token Hub issues. When HUB_PRIVATE_KEY is unset a fresh key is generated;
// tokens signed by it do not survive a process restart.
func loadKeys(cfg Config, log Logger) (*keys.Keys, error) {
	if cfg.PrivateKeySeed == "" {
		log.Info("keys.generated.ephemeral")
		return keys.Generate()
	}
	k, err := keys.FromHexSeed(cfg.PrivateKeySeed)
	if err != nil {
		return nil, err
	}
	log.Info("keys.loaded.from_seed")
	return k, nil
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth)

	handler := WithRequestLogging(WithMetrics(WithSecurityHeaders(mux)), a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	useTLS := a.cfg.SSLCert != "" && a.cfg.SSLKey != ""

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled, "tls", useTLS)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			err = srv.ListenAndServeTLS(a.cfg.SSLCert, a.cfg.SSLKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
