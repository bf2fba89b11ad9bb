package bitwarden

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/ToruAI/ToruVault/internal/configs"
	logger "github.com/ToruAI/ToruVault/internal/logging"
	"github.com/ToruAI/ToruVault/internal/secrets"
)

// newTestServer serves a minimal provider API: one organization ("o1")
// with three secrets, one scoped to p1, one to p2, one unscoped.
func newTestServer(t *testing.T, tokenRequests *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/connect/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenRequests, 1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("client_id") != "client-id" || r.PostForm.Get("client_secret") != "client-secret" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "bearer-token",
			"expires_in":   3600,
		})
	})

	mux.HandleFunc("/organizations/o1/secrets/sync", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"hasChanges": false})
	})

	mux.HandleFunc("/organizations/o1/secrets", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bearer-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"secrets": []map[string]string{
				{"id": "s1"}, {"id": "s2"}, {"id": "s3"},
			},
		})
	})

	mux.HandleFunc("/secrets/get-by-ids", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) != 3 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"id": "s1", "key": "A", "value": "1", "projectId": "p1"},
				{"id": "s2", "key": "B", "value": "2", "projectId": "p2"},
				{"id": "s3", "key": "C", "value": "3", "projectId": ""},
			},
		})
	})

	mux.HandleFunc("/organizations/o1/projects", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"id": "p1", "name": "backend", "creationDate": "2024-03-01T10:00:00Z"},
				{"id": "p2", "name": "frontend", "creationDate": "2024-03-02T10:00:00Z"},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(&configs.Settings{
		APIURL:      serverURL,
		IdentityURL: serverURL,
		AccessToken: "0.client-id.client-secret:ignored-key",
		StatePath:   filepath.Join(t.TempDir(), "state.json"),
	}, logger.Logger{})
}

func TestFetchAllProjects(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests)
	client := newTestClient(t, server.URL)

	got, err := client.Fetch(context.Background(), "o1", "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	want := map[string]string{"A": "1", "B": "2", "C": "3"}
	for name, value := range want {
		if got[name] != value {
			t.Errorf("Expected %s=%s, got %q", name, value, got[name])
		}
	}
	if len(got) != len(want) {
		t.Errorf("Expected %d secrets, got %d", len(want), len(got))
	}
}

func TestFetchProjectFilterIncludesUnscoped(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests)
	client := newTestClient(t, server.URL)

	got, err := client.Fetch(context.Background(), "o1", "p1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// A (scoped to p1) and C (unscoped) pass the filter; B (p2) does not.
	if got["A"] != "1" {
		t.Errorf("Expected the p1-scoped secret, got %v", got)
	}
	if got["C"] != "3" {
		t.Errorf("Expected the unscoped secret to match every filter, got %v", got)
	}
	if _, ok := got["B"]; ok {
		t.Errorf("Expected the p2-scoped secret to be excluded, got %v", got)
	}
}

func TestFetchUnscopedMatchesMismatchedFilter(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests)
	client := newTestClient(t, server.URL)

	got, err := client.Fetch(context.Background(), "o1", "no-such-project")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(got) != 1 || got["C"] != "3" {
		t.Errorf("Expected only the unscoped secret for a mismatched filter, got %v", got)
	}
}

func TestFetchReusesBearerToken(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	if _, err := client.Fetch(ctx, "o1", ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := client.Fetch(ctx, "o1", ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if got := atomic.LoadInt32(&tokenRequests); got != 1 {
		t.Errorf("Expected a single token exchange, got %d", got)
	}
}

func TestFetchWritesHardenedStateFile(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests)
	client := newTestClient(t, server.URL)

	if _, err := client.Fetch(context.Background(), "o1", ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	info, err := os.Stat(client.statePath)
	if err != nil {
		t.Fatalf("Expected the auth state file to exist: %v", err)
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("Expected 0600 permissions on the state file, got %o", perm)
		}
	}

	var state authState
	data, err := os.ReadFile(client.statePath)
	if err != nil {
		t.Fatalf("Failed to read state file: %v", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("Failed to parse state file: %v", err)
	}
	if state.AccessToken != "bearer-token" {
		t.Errorf("Expected the bearer token to be persisted, got %q", state.AccessToken)
	}
}

func TestFetchAuthenticationFailure(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests)
	client := newTestClient(t, server.URL)
	client.accessToken = "0.wrong-id.wrong-secret"

	_, err := client.Fetch(context.Background(), "o1", "")
	if err == nil {
		t.Fatalf("Expected an authentication error")
	}

	var providerErr *secrets.ProviderError
	if !errors.As(err, &providerErr) {
		t.Errorf("Expected a ProviderError, got %T: %v", err, err)
	}
}

func TestSplitAccessToken(t *testing.T) {
	cases := []struct {
		name       string
		token      string
		wantID     string
		wantSecret string
		wantErr    bool
	}{
		{"full token", "0.client-id.secret:enckey", "client-id", "secret", false},
		{"no encryption key", "0.client-id.secret", "client-id", "secret", false},
		{"wrong version", "1.client-id.secret", "", "", true},
		{"missing parts", "0.client-id", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, secret, err := splitAccessToken(tc.token)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q", tc.token)
				}
				return
			}
			if err != nil {
				t.Fatalf("splitAccessToken failed: %v", err)
			}
			if id != tc.wantID || secret != tc.wantSecret {
				t.Errorf("Expected (%q, %q), got (%q, %q)", tc.wantID, tc.wantSecret, id, secret)
			}
		})
	}
}

func TestProjects(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests)
	client := newTestClient(t, server.URL)

	projects, err := client.Projects(context.Background(), "o1")
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}

	if len(projects) != 2 {
		t.Fatalf("Expected 2 projects, got %d", len(projects))
	}
	if projects[0].ID != "p1" || projects[0].Name != "backend" {
		t.Errorf("Unexpected first project: %+v", projects[0])
	}
}

func TestAuthenticateLoadsPersistedState(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests)

	first := newTestClient(t, server.URL)
	ctx := context.Background()
	if _, err := first.Fetch(ctx, "o1", ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// A second client sharing the state file should not need a new token
	// exchange.
	second := NewClient(&configs.Settings{
		APIURL:      server.URL,
		IdentityURL: server.URL,
		AccessToken: first.accessToken,
		StatePath:   first.statePath,
	}, logger.Logger{})
	if _, err := second.Fetch(ctx, "o1", ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if got := atomic.LoadInt32(&tokenRequests); got != 1 {
		t.Errorf("Expected the persisted state to be reused, got %d token exchanges", got)
	}
}
