package graph

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Token is a bearer access token with its expiry instant.
//
// Token acquisition itself (certificate credentials, MSAL, device code) is
// out of scope: a TokenSource is handed in from outside and this package only
// checks staleness before use.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token is non-empty and not yet expired.
func (t Token) Valid() bool {
	return t.Value != "" && time.Now().Before(t.ExpiresAt)
}

// TokenSource supplies bearer tokens for Graph requests.
type TokenSource interface {
	// Token returns a token expected to be valid at the time of the call.
	Token(ctx context.Context) (Token, error)
}

// StaticTokenSource returns a source that always yields the same token.
// Suitable for one-shot runs where the token outlives the batch.
func StaticTokenSource(value string, expiresAt time.Time) TokenSource {
	return staticSource{token: Token{Value: value, ExpiresAt: expiresAt}}
}

type staticSource struct {
	token Token
}

func (s staticSource) Token(_ context.Context) (Token, error) {
	if s.token.Value == "" {
		return Token{}, fmt.Errorf("%w: empty access token", ErrAuth)
	}
	return s.token, nil
}

// CachingTokenSource wraps a source and re-asks it only once the cached
// token has expired. Long report runs cross token lifetimes; checking the
// expiry instant before every logical request keeps requests from going out
// with a stale token.
type CachingTokenSource struct {
	mu     sync.Mutex
	source TokenSource
	cached Token
}

// NewCachingTokenSource creates a caching wrapper around source.
func NewCachingTokenSource(source TokenSource) *CachingTokenSource {
	return &CachingTokenSource{source: source}
}

// Token returns the cached token, refreshing it from the underlying source
// when it has gone stale.
func (c *CachingTokenSource) Token(ctx context.Context) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached.Valid() {
		return c.cached, nil
	}

	token, err := c.source.Token(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if !token.Valid() {
		return Token{}, fmt.Errorf("%w: source returned an expired token", ErrAuth)
	}

	c.cached = token
	return token, nil
}
