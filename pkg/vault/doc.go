// Package vault retrieves named secrets from a remote secrets-management
// provider and exposes them to the host process as environment variables
// or as an in-memory map.
//
// Fetched secret sets are cached locally for a configurable TTL,
// encrypted under a key derived from the machine identity. The cache
// degrades gracefully: if encryption is unavailable it stores plaintext
// for the session, and a payload that cannot be decrypted (for example a
// cache produced on another machine) is simply refetched.
//
//	v, err := vault.Open(vault.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer v.Close()
//
//	if err := v.EnvLoad(ctx, "", "my-project-id", false); err != nil {
//		log.Fatal(err)
//	}
package vault
