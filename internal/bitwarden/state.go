package bitwarden

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ToruAI/ToruVault/internal/permissions"
)

// authState is the durable authentication state persisted between
// invocations so each run does not need a fresh token exchange.
type authState struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// loadState reads the state file. Any failure (missing file, unreadable,
// malformed) is treated as no state; the client just re-authenticates.
func (c *Client) loadState() *authState {
	data, err := os.ReadFile(c.statePath)
	if err != nil {
		return nil
	}

	var state authState
	if err := json.Unmarshal(data, &state); err != nil {
		c.logger.Debugf("ignoring unreadable state file %s: %v", c.statePath, err)
		return nil
	}

	return &state
}

// saveState persists the authentication state and hardens the file (and a
// newly created parent directory) to owner-only access. Hardening
// failures are logged, never fatal.
func (c *Client) saveState(state *authState) {
	data, err := json.Marshal(state)
	if err != nil {
		c.logger.Warnf("failed to serialize auth state: %v", err)
		return
	}

	if err := permissions.EnsureDir(c.statePath); err != nil {
		c.logger.Warnf("%v", err)
	}

	if err := os.WriteFile(c.statePath, data, 0600); err != nil {
		c.logger.Warnf("failed to write auth state to %s: %v", c.statePath, err)
		return
	}

	if err := permissions.HardenFile(c.statePath); err != nil {
		c.logger.Warnf("auth state not hardened: %v", err)
	}
}
