package secrets

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	verrors "github.com/ToruAI/ToruVault/internal/errors"
	"github.com/ToruAI/ToruVault/internal/machineid"

	"golang.org/x/crypto/nacl/secretbox"
)

// nonceLength is the secretbox nonce size; the nonce is prepended to the
// sealed bytes inside the ciphertext token.
const nonceLength = 24

// Cipher encrypts and decrypts secret maps under a key derived from the
// machine identity. Payloads are only decryptable on the machine (and
// identity) that produced them.
type Cipher struct {
	identity string
}

// NewCipher returns a Cipher bound to the current machine identity.
// The identity is resolved once; within one process every payload is
// encrypted and decrypted under the same identity.
func NewCipher() *Cipher {
	return &Cipher{identity: machineid.Resolve()}
}

// Encrypt serializes the secret map to JSON and seals it under a freshly
// derived key. The returned payload has the form
//
//	base64url(salt) + ":" + base64url(nonce || box)
//
// with exactly one separator colon. Each call generates a fresh salt and
// nonce, so encrypting the same map twice yields different payloads.
func (c *Cipher) Encrypt(secrets map[string]string) (string, error) {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return "", fmt.Errorf("failed to serialize secrets: %w", err)
	}

	key, salt, err := DeriveKey(c.identity, nil)
	if err != nil {
		return "", err
	}
	boxKey, err := decodeKey(key)
	if err != nil {
		return "", err
	}

	var nonce [nonceLength]byte
	if _, err := io.ReadFull(randReader, nonce[:]); err != nil {
		return "", fmt.Errorf("%w: %v", verrors.ErrCryptoUnavailable, err)
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, boxKey)

	return base64.URLEncoding.EncodeToString(salt) + ":" + base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. The payload is split on the first colon; the
// salt half re-derives the key under the current machine identity and the
// ciphertext half is opened and parsed.
//
// Any failure (malformed payload, payload produced on another machine,
// corrupted ciphertext, JSON parse error) returns an error the caller
// should treat as a cache miss, never as a fatal condition.
func (c *Cipher) Decrypt(payload string) (map[string]string, error) {
	idx := strings.Index(payload, ":")
	if idx < 0 {
		return nil, verrors.ErrMalformedPayload
	}

	salt, err := base64.URLEncoding.DecodeString(payload[:idx])
	if err != nil {
		return nil, fmt.Errorf("%w: bad salt encoding", verrors.ErrMalformedPayload)
	}

	key, _, err := DeriveKey(c.identity, salt)
	if err != nil {
		return nil, err
	}
	boxKey, err := decodeKey(key)
	if err != nil {
		return nil, err
	}

	sealed, err := base64.URLEncoding.DecodeString(payload[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding", verrors.ErrMalformedPayload)
	}
	if len(sealed) <= nonceLength {
		return nil, verrors.ErrMalformedPayload
	}

	var nonce [nonceLength]byte
	copy(nonce[:], sealed[:nonceLength])

	plaintext, ok := secretbox.Open(nil, sealed[nonceLength:], &nonce, boxKey)
	if !ok {
		return nil, verrors.ErrDecryptFailed
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("%w: %v", verrors.ErrDecryptFailed, err)
	}

	return secrets, nil
}
