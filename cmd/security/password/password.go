package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = 19 // argon2.Version is 0x13 (19)
)

// Hash hashes a password using Argon2id and returns an encoded hash
// string. A compromised hash here is a compromised Hub account across
// every client type it has a session with, so Validate always runs
// first. Format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// identifiers is forwarded to Validate (see matchesIdentifier).
func (c Config) Hash(password string, identifiers ...string) (string, error) {
	if err := c.Validate(password, identifiers...); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		c.Params.KeyLength,
	)

	b64 := base64.RawStdEncoding
	enc := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		c.Params.MemoryKiB,
		c.Params.Iterations,
		c.Params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	)

	return enc, nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	params, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false, err
	}

	// A leaked or forged PHC string could name an absurd cost to DoS the
	// login endpoint; refuse anything wildly above our own configured cost.
	if !withinHubBounds(params, c.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- expected length is bounded by decode(); safe conversion.
	)

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func withinHubBounds(got, limits Argon2idParams) bool {
	// Allow verifying hashes minted under older/smaller settings, but
	// reject anything claiming a much larger cost than Hub would ever mint.
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if got.Parallelism > limits.Parallelism*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// decode parses a $argon2id$v=19$m=..,t=..,p=..$<salt>$<hash> string into
// its cost parameters, salt, and expected key.
func decode(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != "v=19" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	mem, it, par, err := decodeCostString(parts[3])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)), // #nosec G115 -- Verify bounds salt length via withinHubBounds.
		KeyLength:   uint32(len(hash)), // #nosec G115 -- Verify bounds hash length via withinHubBounds.
	}
	return params, salt, hash, nil
}

// decodeCostString parses "m=<mem>,t=<iter>,p=<par>" without relying on
// fmt.Sscanf, so a malformed PHC field fails cleanly instead of engaging
// fmt's generic scanner.
func decodeCostString(s string) (mem, it, par uint32, err error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return 0, 0, 0, ErrInvalidHash
	}

	mem, err = decodeCostField(fields[0], "m=")
	if err != nil {
		return 0, 0, 0, err
	}
	it, err = decodeCostField(fields[1], "t=")
	if err != nil {
		return 0, 0, 0, err
	}
	par, err = decodeCostField(fields[2], "p=")
	if err != nil {
		return 0, 0, 0, err
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return 0, 0, 0, ErrInvalidHash
	}
	return mem, it, par, nil
}

func decodeCostField(field, prefix string) (uint32, error) {
	rest, ok := strings.CutPrefix(field, prefix)
	if !ok {
		return 0, ErrInvalidHash
	}
	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, ErrInvalidHash
	}
	return uint32(n), nil
}
