package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub/cmd/token"
)

// Integration tests are enabled when HUB_TEST_DATABASE_URL is set and
// skipped otherwise. When it is set, an unreachable Postgres fails the
// test.

func TestPostgresStore_NewReplacesRowPerSubAndCt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbURL := os.Getenv("HUB_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("HUB_TEST_DATABASE_URL is not set; skipping Postgres integration test")
	}

	pool := mustPGXPool(ctx, t, dbURL)
	defer pool.Close()

	store := NewPostgresStore(pool)
	sub := uuid.NewString()
	now := time.Now().UTC()

	row1, err := store.New(ctx, now, sub, token.ClientTypeWeb, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	row2, err := store.New(ctx, now.Add(time.Minute), sub, token.ClientTypeWeb, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("New (second call): %v", err)
	}

	if row1.UUID == row2.UUID {
		t.Fatalf("expected a fresh uuid on re-upsert for the same (sub, ct)")
	}
	if row1.Token == row2.Token {
		t.Fatalf("expected a fresh token on re-upsert for the same (sub, ct)")
	}

	// Same sub, different ct must coexist as a distinct row.
	row3, err := store.New(ctx, now, sub, token.ClientTypeGame, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("New (different ct): %v", err)
	}
	if row3.UUID == row2.UUID {
		t.Fatalf("expected distinct rows per client type")
	}

	t.Cleanup(func() { _ = store.DeleteAllForSub(ctx, sub) })
}

func TestPostgresStore_Refresh_RotatesToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbURL := os.Getenv("HUB_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("HUB_TEST_DATABASE_URL is not set; skipping Postgres integration test")
	}

	pool := mustPGXPool(ctx, t, dbURL)
	defer pool.Close()

	store := NewPostgresStore(pool)
	sub := uuid.NewString()
	now := time.Now().UTC()
	t.Cleanup(func() { _ = store.DeleteAllForSub(ctx, sub) })

	row, err := store.New(ctx, now, sub, token.ClientTypeMobile, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	newToken, err := store.Refresh(ctx, token.ClientTypeMobile, row.UUID, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if newToken == row.Token {
		t.Fatalf("expected rotation to change the token")
	}

	found, err := store.FindBy(ctx, token.ClientTypeMobile, ByUUID, row.UUID)
	if err != nil {
		t.Fatalf("FindBy: %v", err)
	}
	if found.Token != newToken {
		t.Fatalf("FindBy returned stale token after rotation")
	}
}

func mustPGXPool(ctx context.Context, t *testing.T, dbURL string) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pool.Ping: %v", err)
	}
	return pool
}
