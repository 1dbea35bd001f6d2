// Package graph fetches the signed-in user's profile from the identity
// provider's Graph API.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client calls the provider's /me endpoint with a bearer access token.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a profile client. An empty baseURL selects the public
// Graph endpoint; tests point it at a local server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Profile fetches the default profile attribute set.
func (c *Client) Profile(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.fetch(ctx, accessToken, nil)
}

// ProfileFields fetches only the named attributes via $select.
func (c *Client) ProfileFields(ctx context.Context, accessToken string, fields []string) (map[string]any, error) {
	return c.fetch(ctx, accessToken, fields)
}

func (c *Client) fetch(ctx context.Context, accessToken string, fields []string) (map[string]any, error) {
	endpoint := c.baseURL + "/me"
	if len(fields) > 0 {
		q := url.Values{}
		q.Set("$select", strings.Join(fields, ","))
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("graph: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph: profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph: profile request returned %s", resp.Status)
	}

	var profile map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("graph: decode profile: %w", err)
	}
	return profile, nil
}
