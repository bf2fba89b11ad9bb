package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	verrors "github.com/ToruAI/ToruVault/internal/errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyLength is the length of a derived symmetric key in bytes.
	KeyLength = 32

	// SaltLength is the length of the key-derivation salt in bytes.
	SaltLength = 16

	// kdfIterations is the PBKDF2 iteration count.
	kdfIterations = 100000
)

// randReader is the source of cryptographic randomness. Overridable for tests.
var randReader io.Reader = rand.Reader

// DeriveKey derives a symmetric key from the machine identity and a salt
// using PBKDF2 with HMAC-SHA-256. The key is returned base64url-encoded.
//
// If salt is nil, a fresh random salt is generated and returned alongside
// the key; the salt must be persisted with the ciphertext since the same
// (identity, salt) pair is required to re-derive the key at decrypt time.
// Derivation is deterministic for a given identity and salt.
func DeriveKey(identity string, salt []byte) (string, []byte, error) {
	if salt == nil {
		salt = make([]byte, SaltLength)
		if _, err := io.ReadFull(randReader, salt); err != nil {
			return "", nil, fmt.Errorf("%w: %v", verrors.ErrCryptoUnavailable, err)
		}
	}
	if len(salt) != SaltLength {
		return "", nil, fmt.Errorf("%w: expected %d bytes, got %d", verrors.ErrInvalidSaltLength, SaltLength, len(salt))
	}

	raw := pbkdf2.Key([]byte(identity), salt, kdfIterations, KeyLength, sha256.New)
	return base64.URLEncoding.EncodeToString(raw), salt, nil
}

// decodeKey turns a base64url-encoded derived key back into the fixed-size
// array secretbox expects.
func decodeKey(key string) (*[KeyLength]byte, error) {
	raw, err := base64.URLEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode derived key: %w", err)
	}
	if len(raw) != KeyLength {
		return nil, fmt.Errorf("invalid derived key length: expected %d bytes, got %d", KeyLength, len(raw))
	}

	var boxKey [KeyLength]byte
	copy(boxKey[:], raw)
	return &boxKey, nil
}
