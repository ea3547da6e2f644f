package github

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limiting support.
// The wrapped client is unauthenticated; each request scope derives an
// authenticated copy with ForCredential so credentials never outlive a run.
type Client struct {
	base *github.Client
}

// NewClient creates a new GitHub client with rate limiting.
// baseURL overrides the API endpoint (GitHub Enterprise or a test server);
// empty means api.github.com.
func NewClient(baseURL string) (*Client, error) {
	// Handles both primary rate limits (5000 req/hour authenticated, 60 unauthenticated)
	// and secondary rate limits (abuse detection) by waiting them out.
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", baseURL, err)
		}
		ghClient.BaseURL = u
	}

	return &Client{base: ghClient}, nil
}

// ForCredential returns a client that sends token as a bearer credential.
// An empty token yields the unauthenticated client.
func (c *Client) ForCredential(token string) *github.Client {
	if token == "" {
		return c.base
	}
	return c.base.WithAuthToken(token)
}
