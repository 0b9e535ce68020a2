package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// dsn builds a libpq connection string from the discrete HUB_DB_* fields.
func dsn(cfg Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=prefer",
		cfg.DBAddr, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName,
	)
}

// NewDBPool builds a pgxpool with sane defaults and validates connectivity.
// It does not run migrations; schema management happens out of band.
func NewDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.DBPoolMax > 0 {
		pcfg.MaxConns = cfg.DBPoolMax
	}
	if cfg.DBPoolMin >= 0 {
		pcfg.MinConns = cfg.DBPoolMin
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.DBTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if err := PingDB(ctx, pool, timeout); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// PingDB checks if we can acquire a connection within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}
