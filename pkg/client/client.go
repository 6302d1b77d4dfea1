// Package client is the Go client for the boxfleet API, used by the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 30 * time.Second
	userAgent      = "boxfleet-client/1.0.0"
)

// Client talks to one boxfleetd server with one credential.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	user       string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client. The credential is the `owner:token` pair the server
// checks as Basic auth.
func New(baseURL, credential string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	user, token, ok := strings.Cut(credential, ":")
	if !ok || user == "" || token == "" {
		return nil, fmt.Errorf("credential must be of the form owner:token")
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		user:       user,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// User returns the owner half of the credential.
func (c *Client) User() string {
	return c.user
}

func (c *Client) doRequest(ctx context.Context, method, requestPath string, body interface{}) (*http.Response, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + requestPath

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.SetBasicAuth(c.user, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, requestPath string, body, result interface{}) error {
	resp, err := c.doRequest(ctx, method, requestPath, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return handleErrorResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeJSON(resp *http.Response, result interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doEmpty(ctx context.Context, method, requestPath string) error {
	resp, err := c.doRequest(ctx, method, requestPath, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return handleErrorResponse(resp)
	}
	return nil
}
