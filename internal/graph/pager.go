package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// maxPageAttempts is the per-page request budget under throttling.
	maxPageAttempts = 3
	// backoffStep is multiplied by the attempt number: 15s, then 30s.
	backoffStep = 15 * time.Second
)

// page is a single page of a Graph list response.
type page struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// Pager retrieves complete result sets from cursor-paginated Graph
// endpoints, tolerating transient throttling.
//
// One Pager may serve many queries; each call to All owns its own cursor
// and runs sequentially to completion or failure.
type Pager struct {
	client *Client

	// sleep is swapped out in tests; backoff delays are full blocking
	// sleeps, acceptable for batch tooling.
	sleep func(time.Duration)
}

// PagerOption configures a Pager.
type PagerOption func(*Pager)

// WithSleep replaces the backoff sleep, primarily for tests.
func WithSleep(sleep func(time.Duration)) PagerOption {
	return func(p *Pager) { p.sleep = sleep }
}

// NewPager creates a pager over the given client.
func NewPager(client *Client, opts ...PagerOption) *Pager {
	p := &Pager{
		client: client,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// All follows the continuation cursor from uri until exhaustion and returns
// the concatenation of all pages' items in server order, no deduplication.
//
// A nil error means the result set is complete. On a terminal failure the
// items fetched before the failing page are returned alongside the error so
// callers can tell a partial result from a complete one. The known
// not-yet-migrated mailbox condition is logged and reported as an empty,
// complete result.
func (p *Pager) All(ctx context.Context, uri string) ([]json.RawMessage, error) {
	var items []json.RawMessage

	url := uri
	for url != "" {
		pg, err := p.fetchPage(ctx, url)
		if err != nil {
			if errors.Is(err, ErrMailboxNotMigrated) {
				log.Warn().Str("uri", uri).Msg("mailbox not migrated, skipping resource")
				return items, nil
			}
			return items, err
		}

		items = append(items, pg.Value...)
		url = pg.NextLink
	}

	return items, nil
}

// fetchPage issues one logical page request, retrying on throttling with a
// linearly increasing delay (attempt number times 15 seconds) up to the
// attempt budget. Any non-throttle failure is terminal.
func (p *Pager) fetchPage(ctx context.Context, url string) (*page, error) {
	for attempt := 1; ; attempt++ {
		resp, err := p.client.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("page request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read page: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			var pg page
			if err := json.Unmarshal(body, &pg); err != nil {
				return nil, fmt.Errorf("decode page: %w", err)
			}
			return &pg, nil
		}

		if IsRateLimited(resp.StatusCode) {
			if attempt >= maxPageAttempts {
				return nil, fmt.Errorf("throttled on %d attempts: %w",
					attempt, ErrRateLimitExceeded)
			}
			delay := time.Duration(attempt) * backoffStep
			log.Warn().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("request throttled, backing off")
			p.sleep(delay)
			continue
		}

		code, message, apiErr := ParseAPIError(resp.StatusCode, body)
		return nil, fmt.Errorf("page request failed: status %d code %q: %s: %w",
			resp.StatusCode, code, message, apiErr)
	}
}

// AllAs pages through uri and decodes every item into T.
// Items that fail to decode abort the query; Graph list items are
// homogeneous and a decode failure means the wrong endpoint was queried.
func AllAs[T any](ctx context.Context, p *Pager, uri string) ([]T, error) {
	raw, err := p.All(ctx, uri)

	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if decodeErr := json.Unmarshal(item, &v); decodeErr != nil {
			return nil, fmt.Errorf("decode item: %w", decodeErr)
		}
		out = append(out, v)
	}

	if err != nil {
		return out, err
	}
	return out, nil
}
