// Package bitwarden adapts a Bitwarden-Secrets-Manager-compatible HTTP
// API to the secrets.Gateway port.
//
// The adapter owns authentication (machine access token exchanged for a
// bearer token at the identity endpoint, cached in a permission-hardened
// state file), syncing, listing, and detail fetches. It validates
// provider responses and hands well-typed secret maps to the cache, so
// nothing downstream depends on the provider's wire format.
package bitwarden
