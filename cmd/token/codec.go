package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hub/cmd/security/keys"
)

// Codec signs and verifies Hub's three token types against a single
// Ed25519 keypair.
type Codec struct {
	keys   *keys.Keys
	leeway time.Duration
}

// NewCodec constructs a Codec around the process's key material. Leeway
// is the clock-skew tolerance applied when validating exp/nbf, mirroring
// the one-second leeway the prototype configured on jsonwebtoken::Validation.
func NewCodec(k *keys.Keys) *Codec {
	return &Codec{keys: k, leeway: keys.Leeway * time.Second}
}

func (c *Codec) sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return t.SignedString(c.keys.Private())
}

// SignRefresh mints a RefreshToken for session sess belonging to sub,
// scoped to ct. jti is the session's own token column, so the session
// store and the signed token agree on the same value.
func (c *Codec) SignRefresh(sess, sub string, ct ClientType, jti string, now time.Time) (string, RefreshClaims, error) {
	claims := RefreshClaims{
		Sess: sess,
		Sub:  sub,
		Jti:  jti,
		Exp:  now.Add(RefreshTokenTTL).Unix(),
		Nbf:  now.Unix(),
		Ct:   ct,
	}
	signed, err := c.sign(claims)
	if err != nil {
		return "", RefreshClaims{}, err
	}
	return signed, claims, nil
}

// DecodeRefresh parses and verifies a RefreshToken.
func (c *Codec) DecodeRefresh(raw string, now time.Time) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := c.parse(raw, &claims, now); err != nil {
		return RefreshClaims{}, err
	}
	return claims, nil
}

// SignAccess mints an AccessToken for sub's session sessUUID, scoped to
// ct. jti is a fresh identifier per issuance, independent of sessUUID.
func (c *Codec) SignAccess(sessUUID, sub string, ct ClientType, now time.Time) (string, AccessClaims, error) {
	claims := AccessClaims{
		Iss: sessUUID,
		Sub: sub,
		Jti: uuid.NewString(),
		Exp: now.Add(AccessTokenTTL).Unix(),
		Ct:  ct,
	}
	signed, err := c.sign(claims)
	if err != nil {
		return "", AccessClaims{}, err
	}
	return signed, claims, nil
}

// DecodeAccess parses and verifies an AccessToken.
func (c *Codec) DecodeAccess(raw string, now time.Time) (AccessClaims, error) {
	var claims AccessClaims
	if err := c.parse(raw, &claims, now); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// SignPIT mints a PlayerIdentityToken for sub, scoped to ct, addressed
// to the game server identified by serverID.
func (c *Codec) SignPIT(sub, serverID string, ct ClientType, now time.Time) (string, PITClaims, error) {
	claims := PITClaims{
		Aud: serverID,
		Sub: sub,
		Jti: uuid.NewString(),
		Exp: now.Add(PITTTL).Unix(),
		Nbf: now.Unix(),
		Ct:  ct,
	}
	signed, err := c.sign(claims)
	if err != nil {
		return "", PITClaims{}, err
	}
	return signed, claims, nil
}

// DecodePIT parses and verifies a PlayerIdentityToken.
func (c *Codec) DecodePIT(raw string, now time.Time) (PITClaims, error) {
	var claims PITClaims
	if err := c.parse(raw, &claims, now); err != nil {
		return PITClaims{}, err
	}
	return claims, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims, now time.Time) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.keys.Public(), nil
	})
	if err != nil {
		return classify(err)
	}
	return nil
}
