package configs

import (
	"os"
	"path/filepath"

	verrors "github.com/ToruAI/ToruVault/internal/errors"
)

// Provider endpoints used when the environment does not override them.
const (
	DefaultAPIURL      = "https://api.bitwarden.com"
	DefaultIdentityURL = "https://identity.bitwarden.com"
)

// Credential-store keys for persisted bootstrap values.
const (
	StoreKeyOrganization = "organization_id"
	StoreKeyStateFile    = "state_file"
)

// Settings holds the bootstrap configuration for reaching the remote
// secrets provider. All values come from the environment; the org ID and
// state path may additionally be persisted across invocations via the OS
// credential store or the user config file.
type Settings struct {
	APIURL         string
	IdentityURL    string
	AccessToken    string
	StatePath      string
	OrganizationID string
}

// Load reads settings from the environment, applying provider defaults
// for the two endpoint URLs. Missing values are not an error here;
// Validate decides what is required for a given operation.
func Load() *Settings {
	return &Settings{
		APIURL:         envOrDefault("API_URL", DefaultAPIURL),
		IdentityURL:    envOrDefault("IDENTITY_URL", DefaultIdentityURL),
		AccessToken:    os.Getenv("BWS_TOKEN"),
		StatePath:      os.Getenv("STATE_FILE"),
		OrganizationID: os.Getenv("ORGANIZATION_ID"),
	}
}

// Validate checks the values every gateway operation needs. A failure
// here is a configuration error: fatal, surfaced to the caller, and
// raised before the cache is ever consulted.
func (s *Settings) Validate() error {
	if s.AccessToken == "" {
		return verrors.ErrMissingAccessToken
	}
	if s.StatePath == "" {
		return verrors.ErrMissingStateFile
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// UserConfigPath returns the path of the persisted user configuration.
// Overridable for tests.
var UserConfigPath = func() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "toruvault", "config.toml"), nil
}
