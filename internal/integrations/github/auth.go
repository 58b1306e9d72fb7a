package github

import (
	"context"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

const (
	// requestTimeout bounds each API call including retries.
	requestTimeout = 30 * time.Second

	// retryMax bounds transient-failure retries on the base transport.
	retryMax = 2
)

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.client.BaseURL, _ = c.client.BaseURL.Parse(url + "/")
	}
}

// NewClient creates a new GitHub client using the provided token.
// If token is empty, it returns an unauthenticated client.
// The underlying transport retries transient failures (connection errors,
// 429s, 5xx) a bounded number of times; other statuses pass through.
func NewClient(ctx context.Context, token string, opts ...Option) *Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = retryMax
	retry.Logger = nil
	httpClient := retry.StandardClient()

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, ts)
	}
	httpClient.Timeout = requestTimeout

	c := &Client{
		client: github.NewClient(httpClient),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
