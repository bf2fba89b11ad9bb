package secrets

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	logger "github.com/ToruAI/ToruVault/internal/logging"
)

// fakeGateway returns canned results and counts invocations.
type fakeGateway struct {
	calls   int
	lastOrg string
	result  map[string]string
	err     error
}

func (g *fakeGateway) Fetch(ctx context.Context, organizationID, projectID string) (map[string]string, error) {
	g.calls++
	g.lastOrg = organizationID
	if g.err != nil {
		return nil, g.err
	}
	return copySecrets(g.result), nil
}

func newTestCache(gateway Gateway, ttl time.Duration) *Cache {
	return NewCache(gateway, testCipher(), ttl, logger.Logger{})
}

func TestGetCachesWithinTTL(t *testing.T) {
	gateway := &fakeGateway{result: map[string]string{"A": "1", "B": "2"}}
	cache := newTestCache(gateway, 300*time.Second)
	ctx := context.Background()

	first, err := cache.Get(ctx, "o1", "p1", false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(first, map[string]string{"A": "1", "B": "2"}) {
		t.Errorf("Unexpected secrets: %v", first)
	}

	second, err := cache.Get(ctx, "o1", "p1", false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results from cache")
	}

	if gateway.calls != 1 {
		t.Errorf("Expected 1 gateway call, got %d", gateway.calls)
	}
}

func TestGetTTLExpiry(t *testing.T) {
	gateway := &fakeGateway{result: map[string]string{"A": "1"}}
	cache := newTestCache(gateway, 300*time.Second)
	ctx := context.Background()

	t0 := time.Now()
	cache.now = func() time.Time { return t0 }

	if _, err := cache.Get(ctx, "o1", "", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Just inside the TTL: served from cache.
	cache.now = func() time.Time { return t0.Add(300*time.Second - time.Second) }
	if _, err := cache.Get(ctx, "o1", "", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gateway.calls != 1 {
		t.Errorf("Expected cache hit just inside the TTL, got %d gateway calls", gateway.calls)
	}

	// Just past the TTL: refetched even though the data is identical.
	cache.now = func() time.Time { return t0.Add(300*time.Second + time.Second) }
	if _, err := cache.Get(ctx, "o1", "", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gateway.calls != 2 {
		t.Errorf("Expected a fresh fetch past the TTL, got %d gateway calls", gateway.calls)
	}
}

func TestGetForceRefreshBypassesCache(t *testing.T) {
	gateway := &fakeGateway{result: map[string]string{"A": "1"}}
	cache := newTestCache(gateway, 300*time.Second)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "o1", "", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := cache.Get(ctx, "o1", "", true); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if gateway.calls != 2 {
		t.Errorf("Expected forceRefresh to call the gateway, got %d calls", gateway.calls)
	}
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	gateway := &fakeGateway{result: map[string]string{"A": "1"}}
	cache := newTestCache(gateway, 300*time.Second)
	ctx := context.Background()

	first, err := cache.Get(ctx, "o1", "", false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	first["A"] = "tampered"
	first["INJECTED"] = "x"

	second, err := cache.Get(ctx, "o1", "", false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if second["A"] != "1" || second["INJECTED"] != "" {
		t.Errorf("Mutating a returned map must not affect cache state, got %v", second)
	}
	if gateway.calls != 1 {
		t.Errorf("Expected the second read to come from cache, got %d calls", gateway.calls)
	}
}

func TestGetLegacyPlaintextTier(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("gateway must not be called")}
	cache := newTestCache(gateway, 300*time.Second)

	// A plaintext-tier entry, as stored when encryption was unavailable.
	cache.entries[cacheKey("o1", "p1")] = cacheEntry{
		fetchedAt: time.Now(),
		plain:     map[string]string{"A": "1"},
	}

	got, err := cache.Get(context.Background(), "o1", "p1", false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]string{"A": "1"}) {
		t.Errorf("Expected the plaintext entry as-is, got %v", got)
	}
	if gateway.calls != 0 {
		t.Errorf("Expected no gateway call for a fresh plaintext entry")
	}
}

func TestGetUndecryptableEntryIsAMiss(t *testing.T) {
	gateway := &fakeGateway{result: map[string]string{"A": "fresh"}}
	cache := newTestCache(gateway, 300*time.Second)

	// A fresh entry whose payload cannot be decrypted (e.g. cache copied
	// from another machine).
	cache.entries[cacheKey("o1", "")] = cacheEntry{
		fetchedAt: time.Now(),
		encrypted: "QUFBQUFBQUFBQUFBQUFBQQ==:bm90LWEtcmVhbC1jaXBoZXJ0ZXh0LWJ1dC1sb25nLWVub3VnaA==",
	}

	got, err := cache.Get(context.Background(), "o1", "", false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["A"] != "fresh" {
		t.Errorf("Expected a fresh fetch after decrypt failure, got %v", got)
	}
	if gateway.calls != 1 {
		t.Errorf("Expected exactly one gateway call, got %d", gateway.calls)
	}
}

func TestGetStoresPlaintextWhenEncryptionUnavailable(t *testing.T) {
	original := randReader
	randReader = failingReader{}
	defer func() { randReader = original }()

	gateway := &fakeGateway{result: map[string]string{"A": "1"}}
	cache := newTestCache(gateway, 300*time.Second)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "o1", "", false); err != nil {
		t.Fatalf("Get must not fail when encryption is unavailable: %v", err)
	}

	entry, ok := cache.entries[cacheKey("o1", "")]
	if !ok {
		t.Fatalf("Expected an entry to be stored")
	}
	if entry.plain == nil || entry.encrypted != "" {
		t.Errorf("Expected a plaintext-tier entry, got %+v", entry)
	}

	// Still served from cache on the next read.
	if _, err := cache.Get(ctx, "o1", "", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gateway.calls != 1 {
		t.Errorf("Expected the plaintext entry to be served from cache, got %d calls", gateway.calls)
	}
}

func TestGetPropagatesProviderError(t *testing.T) {
	providerErr := &ProviderError{Op: "list secrets", Err: errors.New("401 unauthorized")}
	gateway := &fakeGateway{err: providerErr}
	cache := newTestCache(gateway, 300*time.Second)

	_, err := cache.Get(context.Background(), "o1", "", false)
	if !errors.Is(err, providerErr) {
		t.Errorf("Expected the provider error unchanged, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected nothing to be cached after a failed fetch")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	gateway := &fakeGateway{result: map[string]string{"A": "1"}}
	cache := newTestCache(gateway, 300*time.Second)

	if _, err := cache.Get(context.Background(), "o1", "", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("Expected 1 entry, got %d", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Expected an empty cache after Clear")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Expected Clear to be safe to call twice")
	}

	// The cache stays usable after clearing.
	if _, err := cache.Get(context.Background(), "o1", "", false); err != nil {
		t.Fatalf("Get after Clear failed: %v", err)
	}
	if gateway.calls != 2 {
		t.Errorf("Expected a fresh fetch after Clear, got %d calls", gateway.calls)
	}
}

func TestGetSeparateKeysPerProject(t *testing.T) {
	gateway := &fakeGateway{result: map[string]string{"A": "1"}}
	cache := newTestCache(gateway, 300*time.Second)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "o1", "p1", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := cache.Get(ctx, "o1", "p2", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := cache.Get(ctx, "o1", "", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if gateway.calls != 3 {
		t.Errorf("Expected separate entries per (org, project), got %d calls", gateway.calls)
	}
	if cache.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", cache.Len())
	}
}
