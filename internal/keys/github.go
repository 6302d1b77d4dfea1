// Package keys fetches users' public SSH keys for injection into new boxes.
package keys

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/boxfleet/boxfleet/internal/model"
)

// Fetcher resolves a username to a public SSH key.
type Fetcher interface {
	PublicKey(ctx context.Context, user string) (string, error)
}

// GitHubFetcher pulls the first key from https://github.com/<user>.keys.
type GitHubFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewGitHubFetcher creates a fetcher against the public GitHub endpoint.
func NewGitHubFetcher() *GitHubFetcher {
	return &GitHubFetcher{
		BaseURL: "https://github.com",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// PublicKey returns the user's first registered key. A user with no keys is
// an invalid-request error since a box without a key is unreachable.
func (f *GitHubFetcher) PublicKey(ctx context.Context, user string) (string, error) {
	url := fmt.Sprintf("%s/%s.keys", f.BaseURL, user)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build key request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", model.Errorf(model.ErrBackendUnavailable, "failed to fetch keys for %q: %v", user, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", model.Errorf(model.ErrInvalidRequest, "no github user %q", user)
	}
	if resp.StatusCode != http.StatusOK {
		return "", model.Errorf(model.ErrBackendUnavailable, "key fetch for %q returned %d", user, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read key response: %w", err)
	}

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
	}
	return "", model.Errorf(model.ErrInvalidRequest, "user %q has no public keys", user)
}
