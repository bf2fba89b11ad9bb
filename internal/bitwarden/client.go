package bitwarden

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ToruAI/ToruVault/internal/configs"
	logger "github.com/ToruAI/ToruVault/internal/logging"
	"github.com/ToruAI/ToruVault/internal/secrets"

	"github.com/hashicorp/go-retryablehttp"
)

// userAgent identifies this client to the provider.
const userAgent = "ToruVault/Go"

// bearerMargin is subtracted from the token expiry so a token is renewed
// before it can expire mid-request.
const bearerMargin = 30 * time.Second

// Client talks to a Bitwarden-Secrets-Manager-compatible provider. It
// implements the secrets.Gateway port: authentication, syncing, listing,
// and detail fetches all live behind Fetch.
type Client struct {
	http        *http.Client
	apiURL      string
	identityURL string
	accessToken string
	statePath   string
	logger      logger.Logger

	mu     sync.Mutex
	bearer string
	expiry time.Time
}

// NewClient builds a Client from resolved settings. Transient HTTP
// failures are retried with backoff; everything else surfaces as a
// ProviderError from the operation that hit it.
func NewClient(settings *configs.Settings, log logger.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil

	return &Client{
		http:        rc.StandardClient(),
		apiURL:      strings.TrimSuffix(settings.APIURL, "/"),
		identityURL: strings.TrimSuffix(settings.IdentityURL, "/"),
		accessToken: settings.AccessToken,
		statePath:   settings.StatePath,
		logger:      log,
	}
}

// Project is one provider project, as listed for an organization.
type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreationDate string `json:"creationDate"`
}

type secretSummary struct {
	ID string `json:"id"`
}

type listResponse struct {
	Secrets []secretSummary `json:"secrets"`
}

type secretDetail struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	ProjectID string `json:"projectId"`
}

type detailResponse struct {
	Data []secretDetail `json:"data"`
}

type projectsResponse struct {
	Data []Project `json:"data"`
}

// Fetch retrieves the secret set for an organization, optionally filtered
// to one project. It syncs first so the listing reflects the latest
// server state, then resolves secret values by ID.
//
// A secret the provider reports without a project association is
// unscoped: it is included for every projectID filter, matched or not.
func (c *Client) Fetch(ctx context.Context, organizationID, projectID string) (map[string]string, error) {
	bearer, err := c.authenticate(ctx)
	if err != nil {
		return nil, &secrets.ProviderError{Op: "authenticate", Err: err}
	}

	if err := c.sync(ctx, bearer, organizationID); err != nil {
		return nil, &secrets.ProviderError{Op: "sync", Err: err}
	}

	var listed listResponse
	listURL := fmt.Sprintf("%s/organizations/%s/secrets", c.apiURL, organizationID)
	if err := c.getJSON(ctx, bearer, listURL, &listed); err != nil {
		return nil, &secrets.ProviderError{Op: "list secrets", Err: err}
	}

	result := make(map[string]string)
	if len(listed.Secrets) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(listed.Secrets))
	for _, summary := range listed.Secrets {
		ids = append(ids, summary.ID)
	}

	var detailed detailResponse
	detailURL := c.apiURL + "/secrets/get-by-ids"
	if err := c.postJSON(ctx, bearer, detailURL, map[string][]string{"ids": ids}, &detailed); err != nil {
		return nil, &secrets.ProviderError{Op: "get secrets by ids", Err: err}
	}

	for _, secret := range detailed.Data {
		// Skip only secrets scoped to a different project. An empty
		// ProjectID means unscoped and always passes.
		if projectID != "" && secret.ProjectID != "" && secret.ProjectID != projectID {
			continue
		}
		result[secret.Key] = secret.Value
	}

	c.logger.Debugf("fetched %d secrets for organization %s", len(result), organizationID)
	return result, nil
}

// Projects lists the organization's projects.
func (c *Client) Projects(ctx context.Context, organizationID string) ([]Project, error) {
	bearer, err := c.authenticate(ctx)
	if err != nil {
		return nil, &secrets.ProviderError{Op: "authenticate", Err: err}
	}

	var listed projectsResponse
	listURL := fmt.Sprintf("%s/organizations/%s/projects", c.apiURL, organizationID)
	if err := c.getJSON(ctx, bearer, listURL, &listed); err != nil {
		return nil, &secrets.ProviderError{Op: "list projects", Err: err}
	}

	return listed.Data, nil
}

// sync asks the server to flush pending changes for the organization so
// the subsequent listing is current.
func (c *Client) sync(ctx context.Context, bearer, organizationID string) error {
	syncURL := fmt.Sprintf("%s/organizations/%s/secrets/sync", c.apiURL, organizationID)
	return c.getJSON(ctx, bearer, syncURL, &struct{}{})
}

// authenticate returns a valid bearer token, exchanging the machine
// access token at the identity endpoint when the cached one (in memory or
// in the state file) has expired.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.bearer != "" && now.Before(c.expiry.Add(-bearerMargin)) {
		return c.bearer, nil
	}

	if state := c.loadState(); state != nil && now.Before(state.ExpiresAt.Add(-bearerMargin)) {
		c.bearer = state.AccessToken
		c.expiry = state.ExpiresAt
		return c.bearer, nil
	}

	clientID, clientSecret, err := splitAccessToken(c.accessToken)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "api.secrets")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.identityURL+"/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("identity endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("identity endpoint returned an empty token")
	}

	c.bearer = token.AccessToken
	c.expiry = now.Add(time.Duration(token.ExpiresIn) * time.Second)
	c.saveState(&authState{AccessToken: c.bearer, ExpiresAt: c.expiry})

	return c.bearer, nil
}

// splitAccessToken parses a machine access token of the form
// "0.<client-id>.<client-secret>[:<encryption-key>]".
func splitAccessToken(token string) (string, string, error) {
	parts := strings.SplitN(token, ".", 3)
	if len(parts) != 3 || parts[0] != "0" || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed access token")
	}

	secret := parts[2]
	if idx := strings.Index(secret, ":"); idx >= 0 {
		secret = secret[:idx]
	}

	return parts[1], secret, nil
}

func (c *Client) getJSON(ctx context.Context, bearer, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, bearer, out)
}

func (c *Client) postJSON(ctx context.Context, bearer, requestURL string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, bearer, out)
}

func (c *Client) doJSON(req *http.Request, bearer string, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s returned %s: %s", req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}

	return nil
}
