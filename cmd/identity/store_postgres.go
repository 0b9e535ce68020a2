package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub/cmd/internal/errkit"
)

// PostgresStore implements Store over PostgreSQL.
//
// Table identifiers are safely quoted to avoid SQL injection via
// identifiers; the pgx pool is owned by the caller and must not be
// closed here.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the identity store
// (default "hub"). The schema name is validated as a legal identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema %q", schema)
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "hub"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// Insert creates a new user. Password is hashed with Argon2id before
// being written; the plaintext is never persisted.
func (s *PostgresStore) Insert(ctx context.Context, now time.Time, username, email, passwordPlain string) (User, error) {
	const op = "identity.Insert"

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return User{}, errkit.Invalid(op, "missing username")
	}
	if email == "" {
		return User{}, errkit.Invalid(op, "missing email")
	}

	hash, err := HashPassword(passwordPlain, DefaultArgon2idParams(), username, emailLocalPart(email))
	if err != nil {
		return User{}, errkit.Invalid(op, err.Error())
	}

	id := uuid.NewString()
	usernameNorm := NormalizeUsername(username)
	emailNorm := NormalizeEmail(email)
	other := map[string]any{}
	otherJSON, err := json.Marshal(other)
	if err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (
		     uuid, username, username_norm, email, email_norm, password, status, other, updated_at, created_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		id, username, usernameNorm, email, emailNorm, hash, int(StatusActive), otherJSON, now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, errkit.ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return User{
		UUID:      id,
		Username:  username,
		Email:     email,
		Password:  hash,
		Status:    StatusActive,
		Other:     other,
		UpdatedAt: now,
		CreatedAt: now,
	}, nil
}

// FindBy looks a user up by uuid, username, or email.
func (s *PostgresStore) FindBy(ctx context.Context, by Lookup, value string) (User, error) {
	const op = "identity.FindBy"

	value = strings.TrimSpace(value)
	if value == "" {
		return User{}, errkit.Invalid(op, "missing lookup value")
	}

	users := pgIdent(s.schema, "users")

	var (
		where string
		arg   string
	)
	switch by {
	case ByUUID:
		where, arg = "uuid = $1", value
	case ByUsername:
		where, arg = "username_norm = $1", NormalizeUsername(value)
	case ByEmail:
		where, arg = "email_norm = $1", NormalizeEmail(value)
	default:
		return User{}, errkit.Invalid(op, "unknown lookup kind")
	}

	var (
		out       User
		status    int
		otherJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT uuid, username, email, password, status, other, updated_at, created_at
		   FROM `+users+`
		  WHERE `+where,
		arg,
	).Scan(&out.UUID, &out.Username, &out.Email, &out.Password, &status, &otherJSON, &out.UpdatedAt, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, errkit.NotFound(op, "user")
		}
		return User{}, err
	}

	out.Status = Status(status)
	if len(otherJSON) > 0 {
		if err := json.Unmarshal(otherJSON, &out.Other); err != nil {
			return User{}, err
		}
	}

	return out, nil
}

// UpdatePassword replaces a user's password hash.
func (s *PostgresStore) UpdatePassword(ctx context.Context, now time.Time, id, newPasswordPlain string) error {
	const op = "identity.UpdatePassword"

	id = strings.TrimSpace(id)
	if id == "" {
		return errkit.Invalid(op, "missing uuid")
	}

	hash, err := HashPassword(newPasswordPlain, DefaultArgon2idParams())
	if err != nil {
		return errkit.Invalid(op, err.Error())
	}

	users := pgIdent(s.schema, "users")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET password = $1, updated_at = $2
		  WHERE uuid = $3`,
		hash, now, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errkit.NotFound(op, "user")
	}
	return nil
}

// emailLocalPart returns the part of an email address before '@', used as
// an extra password-reuse identifier alongside the username.
func emailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" {
		return "", false
	}

	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch {
	case strings.Contains(c, "username"):
		return "username", true
	case strings.Contains(c, "email"):
		return "email", true
	default:
		return "unique", true
	}
}
