package errors

import "errors"

// Configuration errors indicate required bootstrap values are missing.
// They are fatal to the operation that needs them and are never retried.
var (
	// ErrMissingAccessToken indicates the provider access token is not configured.
	ErrMissingAccessToken = errors.New("BWS_TOKEN environment variable is required")

	// ErrMissingStateFile indicates the authentication state file path is not configured.
	ErrMissingStateFile = errors.New("STATE_FILE environment variable is required")

	// ErrMissingOrganization indicates no organization ID was supplied or configured.
	ErrMissingOrganization = errors.New("ORGANIZATION_ID environment variable is required")
)

// Cryptographic errors indicate failures in the cache encryption layer.
// None of them are fatal: the cache degrades rather than failing the caller.
var (
	// ErrCryptoUnavailable indicates the random source or cipher primitive failed.
	// The cache falls back to storing the entry in plaintext for that operation.
	ErrCryptoUnavailable = errors.New("cache encryption unavailable")

	// ErrDecryptFailed indicates a cached payload could not be decrypted,
	// typically because it was produced under a different machine identity or
	// was corrupted. Treated as a cache miss.
	ErrDecryptFailed = errors.New("failed to decrypt cached payload")

	// ErrMalformedPayload indicates a cached payload does not have the
	// expected salt:ciphertext form. Treated as a cache miss.
	ErrMalformedPayload = errors.New("malformed encrypted payload")

	// ErrInvalidSaltLength indicates a salt of unexpected length was supplied
	// to key derivation.
	ErrInvalidSaltLength = errors.New("invalid salt length")
)
