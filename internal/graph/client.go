package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client issues authenticated requests against Microsoft Graph.
//
// Every request carries a Bearer token from the configured TokenSource and
// a client-request-id header so failed calls can be correlated with the
// service-side request log. No timeout is set beyond the transport default;
// these are batch tools and a slow tenant-wide query is expected.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	limiter *RateLimiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Graph endpoint, primarily for tests and
// sovereign clouds.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.http = httpClient }
}

// WithRateLimiter overrides the client-side request pacing.
func WithRateLimiter(limiter *RateLimiter) ClientOption {
	return func(c *Client) { c.limiter = limiter }
}

// NewClient creates a Graph client backed by the given token source.
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{},
		tokens:  tokens,
		limiter: NewRateLimiter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the Graph endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do issues a request with authentication and rate limiting applied.
// The URL must be absolute; nextLink URLs from paginated responses are
// passed through unchanged.
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("client-request-id", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.http.Do(req)
}

// Get issues an authenticated GET against an absolute URL.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, "")
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		code, message, apiErr := ParseAPIError(resp.StatusCode, respBody)
		return fmt.Errorf("get failed: status %d code %q: %s: %w",
			resp.StatusCode, code, message, apiErr)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// PostJSON issues a POST with a JSON body and decodes the JSON response
// into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, url, bytes.NewReader(payload), "application/json")
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		code, message, apiErr := ParseAPIError(resp.StatusCode, respBody)
		return fmt.Errorf("post failed: status %d code %q: %s: %w",
			resp.StatusCode, code, message, apiErr)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
