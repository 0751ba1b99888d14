package watsonx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/config"
	"github.com/ExpertVagabond/watsonx-mcp-server/internal/version"
)

// apiVersion is the watsonx.ai REST API version date sent with every request.
const apiVersion = "2024-05-31"

// Client is an HTTP client for the watsonx.ai REST API. It exchanges the
// IBM Cloud API key for an IAM bearer token on first use and reuses the
// token until it nears expiry. Requests are never retried; transport and
// service errors propagate to the caller.
type Client struct {
	apiKey          string
	projectID       string
	baseURL         string
	iamURL          string
	generationModel string
	embeddingModel  string
	client          *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a watsonx client from configuration.
func New(cfg *config.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for watsonx client")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required for watsonx client")
	}

	return &Client{
		apiKey:          cfg.APIKey,
		projectID:       cfg.ProjectID,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		iamURL:          cfg.IAMURL,
		generationModel: cfg.GenerationModel,
		embeddingModel:  cfg.EmbeddingModel,
		client:          &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// GenerationModel returns the configured text-generation model identifier.
func (c *Client) GenerationModel() string { return c.generationModel }

// EmbeddingModel returns the configured embedding model identifier.
func (c *Client) EmbeddingModel() string { return c.embeddingModel }

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// bearerToken returns a valid IAM bearer token, exchanging the API key for
// a fresh one when none is cached or the cached token is within a minute
// of expiry.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.iamURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("iam: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("iam: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("iam: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iam: token exchange failed (%d): %s", resp.StatusCode, string(body))
	}

	var tok iamTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("iam: unmarshal response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("iam: empty access token in response")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// post sends an authenticated JSON request to a watsonx.ai endpoint and
// decodes the response into out.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("watsonx: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s?version=%s", c.baseURL, path, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("watsonx: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("watsonx: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("watsonx: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("watsonx: API error %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("watsonx: unmarshal response: %w", err)
	}
	return nil
}

// get sends an authenticated GET request to a watsonx.ai endpoint.
func (c *Client) get(ctx context.Context, path string, out any) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s%s?version=%s", c.baseURL, path, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("watsonx: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("watsonx: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("watsonx: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("watsonx: API error %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("watsonx: unmarshal response: %w", err)
	}
	return nil
}
