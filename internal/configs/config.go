package configs

import (
	"fmt"
	"os"
)

// UserConfig is the optional on-disk configuration persisted under the
// user config directory. It is the non-keyring tier for bootstrap values:
// the environment wins, then the OS credential store, then this file.
type UserConfig struct {
	DefaultOrganization string `toml:"default_organization"`
	StatePath           string `toml:"state_path"`
}

// LoadUserConfig loads the user configuration. A missing file yields an
// empty config, not an error.
func LoadUserConfig() (*UserConfig, error) {
	configPath, err := UserConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate user config: %w", err)
	}

	config := &UserConfig{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	return config, nil
}

// SaveUserConfig saves the user configuration, creating the config
// directory if needed.
func SaveUserConfig(config *UserConfig) error {
	configPath, err := UserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to locate user config: %w", err)
	}

	if err := SaveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	return nil
}
