// Package errors defines sentinel errors shared across the vault internals.
//
// Errors are grouped by category. Callers should use errors.Is to check for
// specific conditions, since most errors are wrapped with additional context
// before being returned.
//
// Only configuration errors and provider errors ever surface to callers of
// the cache; cryptographic failures are invisible degradations by design.
package errors
