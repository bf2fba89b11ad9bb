package credstore

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// servicePrefix namespaces all entries written by this tool. Per-org
// entries use "<prefix>:<org-id>" as the keyring service name.
const servicePrefix = "toruvault"

// probeKey is a key that is never written; a Get on it distinguishes a
// working keyring (ErrNotFound) from an absent or locked one.
const probeKey = "__toruvault_probe__"

// Store adapts the OS credential facility (macOS Keychain, Secret
// Service, Windows Credential Manager) for bootstrap configuration such
// as the organization ID and state-file path. Decrypted secret values are
// never written here.
//
// Availability is probed once at construction. On a machine without a
// usable credential facility every operation degrades silently: Get
// reports absent, Set and Delete are no-ops.
type Store struct {
	available bool
}

// New probes the OS credential facility and returns the adapter.
func New() *Store {
	s := &Store{available: true}

	_, err := keyring.Get(servicePrefix, probeKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.available = false
	}

	return s
}

// Available reports whether the OS credential facility is usable.
func (s *Store) Available() bool {
	return s.available
}

// Service returns the keyring service name for an organization. An empty
// organizationID addresses the tool-wide namespace.
func Service(organizationID string) string {
	if organizationID == "" {
		return servicePrefix
	}
	return servicePrefix + ":" + organizationID
}

// Get returns the stored value for key and whether it was present.
func (s *Store) Get(organizationID, key string) (string, bool) {
	if !s.available {
		return "", false
	}
	value, err := keyring.Get(Service(organizationID), key)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores a value under key. A no-op when the facility is unavailable.
func (s *Store) Set(organizationID, key, value string) error {
	if !s.available {
		return nil
	}
	return keyring.Set(Service(organizationID), key, value)
}

// Delete removes key. Missing keys and an unavailable facility are not
// errors.
func (s *Store) Delete(organizationID, key string) error {
	if !s.available {
		return nil
	}
	if err := keyring.Delete(Service(organizationID), key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
