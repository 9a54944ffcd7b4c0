// Package tokens implements the opaque-token lifecycle: secret generation,
// lookup hashing, minting, validation, rotation support and revocation.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

const secretSize = 48 // 384 bits of entropy before encoding

// GenerateSecret returns a new opaque bearer secret: 48 random bytes,
// base64url without padding. The secret itself is the credential; it is
// returned to the client once and never stored.
func GenerateSecret() (string, error) {
	var raw [secretSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashSecret derives the deterministic lookup hash stored in place of the
// secret. SHA-256 here is an index, not an authentication factor: the
// secret's entropy provides the security, the hash only keeps raw
// credentials out of the database.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// GenerateNumericCode returns a random decimal code of the given length,
// used as the short reset code delivered alongside the link secret.
func GenerateNumericCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code length")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
