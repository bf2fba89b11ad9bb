// Package secrets implements the secure local cache for fetched secrets.
//
// Secret sets retrieved from the remote provider are held in memory,
// encrypted under a key derived from the machine identity (PBKDF2 with
// HMAC-SHA-256, sealed with NaCl secretbox), and expire after a TTL.
//
// The encryption layer is best-effort hardening, not a correctness
// requirement: if key derivation or the random source fails, entries are
// stored in a documented plaintext fallback tier, and a payload that
// fails to decrypt is treated as a cache miss. Only configuration errors
// and provider errors ever reach the caller.
package secrets
