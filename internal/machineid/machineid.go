package machineid

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// fallbackTokenName is the well-known name of the persisted fallback token
// in the system temp directory.
const fallbackTokenName = "toruvault-machine-token"

// tokenDir returns the directory holding the fallback token file.
// Overridable for tests.
var tokenDir = os.TempDir

var (
	ephemeralOnce  sync.Once
	ephemeralToken string
)

// Resolve returns a stable, machine-specific identifier used as key
// derivation input. It never fails: sources are tried in order of
// preference and the last tier generates a token itself.
//
//  1. A well-known OS machine-id file, if present.
//  2. A platform-specific hardware UUID query (fails fast, never hangs).
//  3. The hostname concatenated with a random token persisted to a
//     restricted-permission file in the temp directory.
//
// If the fallback token cannot be persisted, an in-process token is used
// instead; identity is then not stable across process restarts.
func Resolve() string {
	if id := fromFiles(); id != "" {
		return id
	}
	if id := probeHardware(); id != "" {
		return id
	}
	return fromFallbackToken()
}

// fromFiles reads the first readable machine-id file for this platform.
func fromFiles() string {
	for _, path := range machineIDFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}
	return ""
}

// fromFallbackToken combines the hostname with a persisted random token.
// The token is generated once and reused on subsequent runs; deleting the
// file causes a new token to be generated.
func fromFallbackToken() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}

	path := filepath.Join(tokenDir(), fallbackTokenName)

	if data, err := os.ReadFile(path); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return hostname + "-" + token
		}
	}

	token := uuid.New().String()
	// Owner-only permissions must be set at creation time.
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		// Read-only filesystem or permission denied: fall back to an
		// in-process token that lives for this process only.
		ephemeralOnce.Do(func() {
			ephemeralToken = uuid.New().String()
		})
		return hostname + "-" + ephemeralToken
	}

	return hostname + "-" + token
}
