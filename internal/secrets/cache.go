package secrets

import (
	"context"
	"sync"
	"time"

	logger "github.com/ToruAI/ToruVault/internal/logging"
)

// DefaultTTL is the maximum age of a cache entry before it is considered
// stale and refetched from the gateway.
const DefaultTTL = 300 * time.Second

// cacheEntry is one stored secret set. Exactly one of encrypted or plain
// is populated: encrypted holds the sealed payload, plain is the fallback
// tier used when encryption was unavailable at store time.
type cacheEntry struct {
	fetchedAt time.Time
	encrypted string
	plain     map[string]string
}

// Cache is a TTL-bounded, encrypted in-memory store of fetched secret
// sets, keyed by organization and project. Entries are immutable once
// written; callers always receive independent copies.
//
// The cache is safe for concurrent use. Two goroutines racing on the same
// stale key may both hit the gateway; the second write wins, which is
// acceptable since both fetched the same authoritative data.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	gateway Gateway
	cipher  *Cipher
	logger  logger.Logger
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache returns an empty cache backed by the given gateway and cipher.
// A non-positive ttl selects DefaultTTL.
func NewCache(gateway Gateway, cipher *Cipher, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		gateway: gateway,
		cipher:  cipher,
		logger:  log,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// cacheKey identifies the secret subset one entry represents. An empty
// projectID means all projects of the organization.
func cacheKey(organizationID, projectID string) string {
	return organizationID + ":" + projectID
}

// Get returns the secret set for (organizationID, projectID).
//
// With forceRefresh the gateway is always consulted, bypassing any cached
// entry. Otherwise a fresh entry is served from the cache: an encrypted
// payload is decrypted, a plaintext-tier entry is copied directly. A
// missing, expired, or undecryptable entry triggers a gateway fetch whose
// result is stored back (encrypted when possible) and returned.
//
// Gateway errors are propagated unchanged; nothing is cached for a failed
// fetch. The returned map is always an independent copy.
func (c *Cache) Get(ctx context.Context, organizationID, projectID string, forceRefresh bool) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(organizationID, projectID)

	if !forceRefresh {
		if entry, ok := c.entries[key]; ok && c.now().Sub(entry.fetchedAt) < c.ttl {
			if entry.plain != nil {
				return copySecrets(entry.plain), nil
			}
			decrypted, err := c.cipher.Decrypt(entry.encrypted)
			if err == nil {
				return decrypted, nil
			}
			// Wrong machine, corrupted payload, or parse failure: a miss,
			// never an error for the caller.
			c.logger.Debugf("cache entry %s failed to decrypt, refetching: %v", key, err)
		}
	}

	fetched, err := c.gateway.Fetch(ctx, organizationID, projectID)
	if err != nil {
		return nil, err
	}

	c.store(key, fetched)
	return copySecrets(fetched), nil
}

// store writes a freshly fetched secret set, stamping the current time.
// If encryption fails the plaintext tier is used for this entry so a
// broken crypto stack never blocks secret delivery.
func (c *Cache) store(key string, secrets map[string]string) {
	entry := cacheEntry{fetchedAt: c.now()}

	payload, err := c.cipher.Encrypt(secrets)
	if err != nil {
		c.logger.Warnf("cache encryption unavailable, storing entry %s in plaintext: %v", key, err)
		entry.plain = copySecrets(secrets)
	} else {
		entry.encrypted = payload
	}

	c.entries[key] = entry
}

// Clear drops all entries, zeroing any plaintext-tier secret values first.
// Safe to call repeatedly; the cache stays usable afterwards.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		for name := range entry.plain {
			entry.plain[name] = ""
		}
	}
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of live entries, fresh or expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func copySecrets(secrets map[string]string) map[string]string {
	out := make(map[string]string, len(secrets))
	for name, value := range secrets {
		out[name] = value
	}
	return out
}
