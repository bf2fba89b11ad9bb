// Package configs resolves the bootstrap configuration needed to reach
// the remote secrets provider.
//
// Resolution order for the organization ID and state-file path:
//
//  1. Environment variables (API_URL, IDENTITY_URL, BWS_TOKEN,
//     STATE_FILE, ORGANIZATION_ID)
//  2. The OS credential store, when available
//  3. The TOML user config file
//
// The access token only ever comes from the environment.
package configs
