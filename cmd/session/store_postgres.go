package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub/cmd/token"
)

// PostgresStore implements Store against a single "sessions" table
// holding all three client types, distinguished by the ct column, with
// UNIQUE(sub, ct) enforcing one row per user per client type.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// New upserts the session for (sub, ct), handing back a fresh uuid and
// token whether the row previously existed or not.
func (s *PostgresStore) New(ctx context.Context, now time.Time, sub string, ct token.ClientType, exp time.Time) (Row, error) {
	var row Row
	row.Ct = ct

	err := s.pool.QueryRow(ctx, `
		INSERT INTO hub.sessions (sub, ct, exp, updated_at, created_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (sub, ct) DO UPDATE
		SET uuid = DEFAULT, token = DEFAULT, exp = EXCLUDED.exp,
		    updated_at = EXCLUDED.updated_at, created_at = EXCLUDED.created_at
		RETURNING uuid, sub, token, exp, updated_at, created_at
	`, sub, string(ct), exp, now).Scan(&row.UUID, &row.Sub, &row.Token, &row.Exp, &row.UpdatedAt, &row.CreatedAt)
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

// FindBy looks up the session for ct matching the given column.
func (s *PostgresStore) FindBy(ctx context.Context, ct token.ClientType, by Lookup, value string) (Row, error) {
	var column string
	switch by {
	case ByUUID:
		column = "uuid"
	case BySub:
		column = "sub"
	case ByToken:
		column = "token"
	default:
		return Row{}, errors.New("session: unknown lookup kind")
	}

	row := Row{Ct: ct}
	err := s.pool.QueryRow(ctx, `
		SELECT uuid, sub, token, exp, updated_at, created_at
		FROM hub.sessions
		WHERE ct = $1 AND `+column+` = $2
	`, string(ct), value).Scan(&row.UUID, &row.Sub, &row.Token, &row.Exp, &row.UpdatedAt, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, ErrNotFound
		}
		return Row{}, err
	}
	return row, nil
}

// Refresh rotates a session's token to a fresh value and advances its
// expiry, returning the new token.
func (s *PostgresStore) Refresh(ctx context.Context, ct token.ClientType, uuid string, newExp time.Time) (string, error) {
	var newToken string
	err := s.pool.QueryRow(ctx, `
		UPDATE hub.sessions
		SET token = DEFAULT, exp = $1, updated_at = $1
		WHERE uuid = $2 AND ct = $3
		RETURNING token
	`, newExp, uuid, string(ct)).Scan(&newToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return newToken, nil
}

// Delete removes a single session by uuid.
func (s *PostgresStore) Delete(ctx context.Context, ct token.ClientType, uuid string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM hub.sessions WHERE uuid = $1 AND ct = $2
	`, uuid, string(ct))
	return err
}

// DeleteAllForSub removes sub's session row across all client types.
func (s *PostgresStore) DeleteAllForSub(ctx context.Context, sub string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM hub.sessions WHERE sub = $1
	`, sub)
	return err
}
