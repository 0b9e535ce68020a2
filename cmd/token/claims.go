package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Lifetimes for the three token types Hub issues.
const (
	RefreshTokenTTL = 6 * 30 * 24 * time.Hour // six 30-day months
	AccessTokenTTL  = 60 * time.Second
	PITTTL          = 15 * time.Second
)

// RefreshClaims is the claim set carried by the hub-rt cookie. Jti equals
// the owning session's token column, so session lookup and signature
// verification agree on the same identifier without a second DB hash.
type RefreshClaims struct {
	Sess string     `json:"sess"`
	Sub  string     `json:"sub"`
	Jti  string     `json:"jti"`
	Exp  int64      `json:"exp"`
	Nbf  int64      `json:"nbf"`
	Ct   ClientType `json:"ct"`
}

func (c RefreshClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}
func (c RefreshClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Nbf, 0)), nil
}
func (c RefreshClaims) GetIssuedAt() (*jwt.NumericDate, error) { return nil, nil }
func (c RefreshClaims) GetIssuer() (string, error)             { return "", nil }
func (c RefreshClaims) GetSubject() (string, error)            { return c.Sub, nil }
func (c RefreshClaims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// AccessClaims is the claim set carried in an access token's body. Iss
// holds the owning session's uuid (not a service name) so a bearer token
// can be mapped back to its session without a lookup by sub+ct alone;
// Jti is a fresh random identifier minted on every issuance, distinct
// from the session uuid.
type AccessClaims struct {
	Iss string     `json:"iss"`
	Sub string     `json:"sub"`
	Jti string     `json:"jti"`
	Exp int64      `json:"exp"`
	Ct  ClientType `json:"ct"`
}

func (c AccessClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}
func (c AccessClaims) GetNotBefore() (*jwt.NumericDate, error)   { return nil, nil }
func (c AccessClaims) GetIssuedAt() (*jwt.NumericDate, error)    { return nil, nil }
func (c AccessClaims) GetIssuer() (string, error)                { return c.Iss, nil }
func (c AccessClaims) GetSubject() (string, error)               { return c.Sub, nil }
func (c AccessClaims) GetAudience() (jwt.ClaimStrings, error)     { return nil, nil }

// PITClaims is the claim set carried by a PlayerIdentityToken, minted so
// a player can prove their identity to a specific game server named in
// Aud without that server ever talking to the Hub.
type PITClaims struct {
	Aud string     `json:"aud"`
	Sub string     `json:"sub"`
	Jti string     `json:"jti"`
	Exp int64      `json:"exp"`
	Nbf int64      `json:"nbf"`
	Ct  ClientType `json:"ct"`
}

func (c PITClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}
func (c PITClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Nbf, 0)), nil
}
func (c PITClaims) GetIssuedAt() (*jwt.NumericDate, error) { return nil, nil }
func (c PITClaims) GetIssuer() (string, error)             { return "", nil }
func (c PITClaims) GetSubject() (string, error)            { return c.Sub, nil }
func (c PITClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{c.Aud}, nil
}
