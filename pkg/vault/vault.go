package vault

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ToruAI/ToruVault/internal/bitwarden"
	"github.com/ToruAI/ToruVault/internal/configs"
	"github.com/ToruAI/ToruVault/internal/credstore"
	verrors "github.com/ToruAI/ToruVault/internal/errors"
	logger "github.com/ToruAI/ToruVault/internal/logging"
	"github.com/ToruAI/ToruVault/internal/secrets"
)

// Options configures a Vault session.
type Options struct {
	// TTL is the maximum age of a cached secret set. Zero selects the
	// default of five minutes.
	TTL time.Duration

	// Verbose and Debug control log output.
	Verbose bool
	Debug   bool
}

// Vault is a session handle over the secure local cache and the remote
// secrets provider. Acquire one with Open, use it for the lifetime of the
// process, and release it with Close so decrypted material is dropped on
// every exit path.
type Vault struct {
	settings *configs.Settings
	store    *credstore.Store
	client   *bitwarden.Client
	cache    *secrets.Cache
	logger   logger.Logger
}

// Open resolves the bootstrap configuration and returns a ready session.
//
// The organization ID and state-file path are resolved from the
// environment first, then the OS credential store, then the user config
// file; values found in the environment are persisted to the credential
// store (when one is available) for later invocations. A missing access
// token or state path is a configuration error reported here, before any
// secret is fetched.
func Open(opts Options) (*Vault, error) {
	log := logger.Logger{Verbose: opts.Verbose, Debug: opts.Debug}

	settings := configs.Load()
	store := credstore.New()
	resolveBootstrap(settings, store, log)

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	client := bitwarden.NewClient(settings, log)
	cache := secrets.NewCache(client, secrets.NewCipher(), opts.TTL, log)

	return &Vault{
		settings: settings,
		store:    store,
		client:   client,
		cache:    cache,
		logger:   log,
	}, nil
}

// resolveBootstrap fills missing bootstrap values from the credential
// store and the user config file, and writes environment-provided values
// back to the credential store for the next invocation.
func resolveBootstrap(settings *configs.Settings, store *credstore.Store, log logger.Logger) {
	fromEnvOrg := settings.OrganizationID != ""
	fromEnvState := settings.StatePath != ""

	if settings.OrganizationID == "" {
		if value, ok := store.Get("", configs.StoreKeyOrganization); ok {
			settings.OrganizationID = value
		}
	}
	if settings.StatePath == "" {
		if value, ok := store.Get("", configs.StoreKeyStateFile); ok {
			settings.StatePath = value
		}
	}

	if settings.OrganizationID == "" || settings.StatePath == "" {
		config, err := configs.LoadUserConfig()
		if err != nil {
			log.Debugf("user config unavailable: %v", err)
		} else {
			if settings.OrganizationID == "" {
				settings.OrganizationID = config.DefaultOrganization
			}
			if settings.StatePath == "" {
				settings.StatePath = config.StatePath
			}
		}
	}

	if store.Available() {
		if fromEnvOrg {
			if err := store.Set("", configs.StoreKeyOrganization, settings.OrganizationID); err != nil {
				log.Debugf("failed to persist organization id: %v", err)
			}
		}
		if fromEnvState {
			if err := store.Set("", configs.StoreKeyStateFile, settings.StatePath); err != nil {
				log.Debugf("failed to persist state path: %v", err)
			}
		}
	}
}

// Get returns the secret set for the organization and project. An empty
// organizationID uses the configured default; refresh bypasses the cache.
// The returned map is the caller's to keep: mutating it never affects
// cache state.
func (v *Vault) Get(ctx context.Context, organizationID, projectID string, refresh bool) (map[string]string, error) {
	org, err := v.organization(organizationID)
	if err != nil {
		return nil, err
	}
	return v.cache.Get(ctx, org, projectID, refresh)
}

// EnvLoad copies the secret set into this process's environment. Without
// override, variables that are already set keep their current value.
func (v *Vault) EnvLoad(ctx context.Context, organizationID, projectID string, override bool) error {
	fetched, err := v.Get(ctx, organizationID, projectID, false)
	if err != nil {
		return err
	}

	for name, value := range fetched {
		if !override {
			if _, exists := os.LookupEnv(name); exists {
				continue
			}
		}
		if err := os.Setenv(name, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}

	return nil
}

// Environ returns a copy of the current environment with the secret set
// merged in, suitable for exec.Cmd.Env. Without override, variables
// already present in the environment win over secrets of the same name.
func (v *Vault) Environ(ctx context.Context, organizationID, projectID string, override bool) ([]string, error) {
	fetched, err := v.Get(ctx, organizationID, projectID, false)
	if err != nil {
		return nil, err
	}

	env := os.Environ()
	present := make(map[string]bool, len(env))
	for _, kv := range env {
		if idx := strings.Index(kv, "="); idx >= 0 {
			present[kv[:idx]] = true
		}
	}

	for name, value := range fetched {
		if present[name] && !override {
			continue
		}
		env = append(env, name+"="+value)
	}

	return env, nil
}

// Projects lists the organization's projects from the provider.
func (v *Vault) Projects(ctx context.Context, organizationID string) ([]bitwarden.Project, error) {
	org, err := v.organization(organizationID)
	if err != nil {
		return nil, err
	}
	return v.client.Projects(ctx, org)
}

// Refresh drops all cached entries so the next Get hits the provider.
func (v *Vault) Refresh() {
	v.cache.Clear()
}

// Close releases the session, clearing the cache and zeroing decrypted
// material. The Vault must not be used afterwards.
func (v *Vault) Close() {
	v.cache.Clear()
}

func (v *Vault) organization(organizationID string) (string, error) {
	if organizationID != "" {
		return organizationID, nil
	}
	if v.settings.OrganizationID != "" {
		return v.settings.OrganizationID, nil
	}
	return "", verrors.ErrMissingOrganization
}
