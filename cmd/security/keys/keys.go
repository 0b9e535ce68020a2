package keys

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
)

// Leeway is the clock-skew tolerance applied when validating token
// exp/nbf claims. It mirrors the prototype's jsonwebtoken::Validation
// leeway of one second.
const Leeway = 1 // seconds

// ErrInvalidSeed is returned when a seed is not exactly 32 bytes.
var ErrInvalidSeed = errors.New("keys: seed must be 32 bytes")

// Keys holds the Ed25519 keypair used to sign and verify every token Hub
// issues. The public key is cached in both hex and PEM form at
// construction time since both /pubkey?format=hex and ?format=pem are
// served from the same process for the lifetime of a run.
type Keys struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey

	publicHex string
	publicPEM string
}

// Generate creates a fresh random keypair. Used when HUB_PRIVATE_KEY is
// not set at startup; the generated key is not persisted, so sessions
// signed by it do not survive a restart.
func Generate() (*Keys, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return newKeys(priv, pub)
}

// FromSeed builds a deterministic keypair from a 32-byte Ed25519 seed.
func FromSeed(seed [32]byte) (*Keys, error) {
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("keys: unexpected public key type")
	}
	return newKeys(priv, pub)
}

// FromHexSeed parses a 64-character hex-encoded 32-byte seed, as read
// from the HUB_PRIVATE_KEY environment variable.
func FromHexSeed(s string) (*Keys, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("keys: decode seed: %w", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, ErrInvalidSeed
	}
	var seed [32]byte
	copy(seed[:], raw)
	return FromSeed(seed)
}

func newKeys(priv ed25519.PrivateKey, pub ed25519.PublicKey) (*Keys, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("keys: marshal public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}

	return &Keys{
		private:   priv,
		public:    pub,
		publicHex: hex.EncodeToString(pub),
		publicPEM: string(pem.EncodeToMemory(block)),
	}, nil
}

// Private returns the Ed25519 private key used for signing.
func (k *Keys) Private() ed25519.PrivateKey { return k.private }

// Public returns the Ed25519 public key used for verification.
func (k *Keys) Public() ed25519.PublicKey { return k.public }

// PublicHex returns the public key as lowercase hex, cached at
// construction.
func (k *Keys) PublicHex() string { return k.publicHex }

// PublicPEM returns the public key as a PEM-encoded SubjectPublicKeyInfo
// block, cached at construction.
func (k *Keys) PublicPEM() string { return k.publicPEM }
