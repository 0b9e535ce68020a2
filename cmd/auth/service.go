package auth

import (
	"context"
	"errors"
	"time"

	"hub/cmd/identity"
	"hub/cmd/internal/errkit"
	"hub/cmd/session"
	"hub/cmd/token"
)

// Service implements Hub's login/refresh/revoke/revoke_all/pit state
// machine.
type Service struct {
	cfg      Config
	users    identity.Store
	sessions session.Store
	codec    *token.Codec
}

// NewService constructs a Service over the given stores and token codec.
func NewService(cfg Config, users identity.Store, sessions session.Store, codec *token.Codec) *Service {
	return &Service{cfg: cfg, users: users, sessions: sessions, codec: codec}
}

// Issued bundles the tokens handed back to a client after a successful
// login, refresh, or revoke_all.
type Issued struct {
	User         identity.User
	RefreshToken string
	RefreshExp   time.Time
	AccessToken  string
	AccessExp    time.Time
}

// Login verifies username/password and, on success, issues a fresh
// session and token pair for ct. Status branches map directly onto the
// Hub error taxonomy: Banned -> ErrGone, Inactive -> ErrInactive, bad
// credentials -> ErrUnauthorized, unknown user -> ErrNotFound.
func (s *Service) Login(ctx context.Context, now time.Time, username, password string, ct token.ClientType) (Issued, error) {
	const op = "auth.Login"

	user, err := s.users.FindBy(ctx, identity.ByUsername, username)
	if err != nil {
		if errkit.IsNotFound(err) {
			return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrNotFound, Msg: "user"}
		}
		return Issued{}, err
	}

	ok, err := identity.VerifyPassword(password, user.Password)
	if err != nil {
		return Issued{}, err
	}
	if !ok {
		return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrUnauthorized, Msg: "invalid credentials"}
	}

	switch user.Status {
	case identity.StatusBanned:
		return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrGone, Msg: "account banned"}
	case identity.StatusInactive:
		return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrInactive, Msg: "account inactive"}
	}

	return s.issueForUser(ctx, now, user, ct)
}

// Refresh validates a presented RefreshToken against its backing
// session and issues a new AccessToken, rotating the RefreshToken when
// it is within Config.RotationPeriod of expiry. ct is read from the
// token's own claims, not supplied by the caller: the cookie already
// commits to a client type at the time it was signed.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshToken string) (Issued, error) {
	const op = "auth.Refresh"

	claims, err := s.codec.DecodeRefresh(refreshToken, now)
	if err != nil {
		return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrForbidden, Msg: err.Error()}
	}
	ct := claims.Ct

	row, err := s.sessions.FindBy(ctx, ct, session.ByUUID, claims.Sess)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrNotFound, Msg: "session"}
		}
		return Issued{}, err
	}

	if row.Sub != claims.Sub || row.Token != claims.Jti {
		return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrForbidden, Msg: "token/session mismatch"}
	}
	if !row.Exp.After(now) {
		return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrForbidden, Msg: "session expired"}
	}

	user, err := s.users.FindBy(ctx, identity.ByUUID, row.Sub)
	if err != nil {
		return Issued{}, err
	}

	out := Issued{User: user, RefreshExp: row.Exp}

	if row.Exp.Sub(now) < s.cfg.RotationPeriod {
		newExp := now.Add(token.RefreshTokenTTL)
		newJti, err := s.sessions.Refresh(ctx, ct, row.UUID, newExp)
		if err != nil {
			return Issued{}, err
		}
		signedRefresh, _, err := s.codec.SignRefresh(row.UUID, row.Sub, ct, newJti, now)
		if err != nil {
			return Issued{}, err
		}
		out.RefreshToken = signedRefresh
		out.RefreshExp = newExp
	}

	signedAccess, access, err := s.codec.SignAccess(row.UUID, row.Sub, ct, now)
	if err != nil {
		return Issued{}, err
	}
	out.AccessToken = signedAccess
	out.AccessExp = time.Unix(access.Exp, 0)

	return out, nil
}

// Revoke deletes the single session backing the presented AccessToken.
// ct and the session uuid both come from the token's own claims.
func (s *Service) Revoke(ctx context.Context, now time.Time, accessToken string) error {
	const op = "auth.Revoke"

	claims, err := s.codec.DecodeAccess(accessToken, now)
	if err != nil {
		return errkit.OpError{Op: op, Kind: errkit.ErrForbidden, Msg: err.Error()}
	}
	return s.sessions.Delete(ctx, claims.Ct, claims.Iss)
}

// RevokeAll deletes every session owned by the presented AccessToken's
// subject across all client types, then issues a fresh session for the
// caller's own ct (read from the token's claims) so the calling client is
// not logged out by its own revoke_all call.
func (s *Service) RevokeAll(ctx context.Context, now time.Time, accessToken string) (Issued, error) {
	const op = "auth.RevokeAll"

	claims, err := s.codec.DecodeAccess(accessToken, now)
	if err != nil {
		return Issued{}, errkit.OpError{Op: op, Kind: errkit.ErrForbidden, Msg: err.Error()}
	}

	if err := s.sessions.DeleteAllForSub(ctx, claims.Sub); err != nil {
		return Issued{}, err
	}

	user, err := s.users.FindBy(ctx, identity.ByUUID, claims.Sub)
	if err != nil {
		return Issued{}, err
	}

	return s.issueForUser(ctx, now, user, claims.Ct)
}

// PIT mints a PlayerIdentityToken addressed to serverID for the subject
// of the presented AccessToken.
func (s *Service) PIT(ctx context.Context, now time.Time, accessToken, serverID string) (string, error) {
	const op = "auth.PIT"

	claims, err := s.codec.DecodeAccess(accessToken, now)
	if err != nil {
		return "", errkit.OpError{Op: op, Kind: errkit.ErrForbidden, Msg: err.Error()}
	}

	signed, _, err := s.codec.SignPIT(claims.Sub, serverID, claims.Ct, now)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Authenticate decodes and verifies a bearer AccessToken, mapping any
// decode failure onto ErrForbidden. Request adapters use this to resolve
// the calling user/session before handling access-authenticated routes
// that are not otherwise one of Login/Refresh/Revoke/RevokeAll/PIT.
func (s *Service) Authenticate(now time.Time, accessToken string) (token.AccessClaims, error) {
	const op = "auth.Authenticate"

	claims, err := s.codec.DecodeAccess(accessToken, now)
	if err != nil {
		return token.AccessClaims{}, errkit.OpError{Op: op, Kind: errkit.ErrForbidden, Msg: err.Error()}
	}
	return claims, nil
}

// SessionsBySub reports, for each client type, the session row sub
// currently has, if any. Rows past their expiry are included.
func (s *Service) SessionsBySub(ctx context.Context, sub string) (map[token.ClientType]session.Row, error) {
	out := map[token.ClientType]session.Row{}
	for _, ct := range []token.ClientType{token.ClientTypeWeb, token.ClientTypeGame, token.ClientTypeMobile} {
		row, err := s.sessions.FindBy(ctx, ct, session.BySub, sub)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out[ct] = row
	}
	return out, nil
}

// ChangePassword verifies oldPassword against the stored hash and, on
// success, replaces it with newPassword. A wrong old password maps onto
// ErrNotModified (HTTP 304), per the Hub error taxonomy.
func (s *Service) ChangePassword(ctx context.Context, now time.Time, sub, oldPassword, newPassword string) error {
	const op = "auth.ChangePassword"

	user, err := s.users.FindBy(ctx, identity.ByUUID, sub)
	if err != nil {
		return err
	}

	ok, err := identity.VerifyPassword(oldPassword, user.Password)
	if err != nil {
		return err
	}
	if !ok {
		return errkit.OpError{Op: op, Kind: errkit.ErrNotModified, Msg: "old password does not match"}
	}

	return s.users.UpdatePassword(ctx, now, sub, newPassword)
}

func (s *Service) issueForUser(ctx context.Context, now time.Time, user identity.User, ct token.ClientType) (Issued, error) {
	row, err := s.sessions.New(ctx, now, user.UUID, ct, now.Add(token.RefreshTokenTTL))
	if err != nil {
		return Issued{}, err
	}

	signedRefresh, _, err := s.codec.SignRefresh(row.UUID, user.UUID, ct, row.Token, now)
	if err != nil {
		return Issued{}, err
	}
	signedAccess, access, err := s.codec.SignAccess(row.UUID, user.UUID, ct, now)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		User:         user,
		RefreshToken: signedRefresh,
		RefreshExp:   row.Exp,
		AccessToken:  signedAccess,
		AccessExp:    time.Unix(access.Exp, 0),
	}, nil
}
