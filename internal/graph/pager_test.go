package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPager builds a pager against the given server with sleeps recorded
// instead of slept.
func newTestPager(t *testing.T, serverURL string) (*Pager, *[]time.Duration) {
	t.Helper()

	tokens := StaticTokenSource("tok", time.Now().Add(time.Hour))
	client := NewClient(tokens, WithBaseURL(serverURL))
	pager := NewPager(client)

	var slept []time.Duration
	pager.sleep = func(d time.Duration) { slept = append(slept, d) }
	return pager, &slept
}

func pageBody(items []string, nextLink string) string {
	payload := map[string]any{"value": items}
	if nextLink != "" {
		payload["@odata.nextLink"] = nextLink
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func decodeStrings(t *testing.T, raw []json.RawMessage) []string {
	t.Helper()
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		require.NoError(t, json.Unmarshal(item, &s))
		out = append(out, s)
	}
	return out
}

func TestPager_All_ThreePages(t *testing.T) {
	var server *httptest.Server
	requests := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprint(w, pageBody([]string{"a", "b"}, server.URL+"/items?page=2"))
		case "2":
			fmt.Fprint(w, pageBody([]string{"c"}, server.URL+"/items?page=3"))
		case "3":
			fmt.Fprint(w, pageBody([]string{"d", "e"}, ""))
		default:
			t.Errorf("unexpected request %s", r.URL.String())
		}
	}))
	defer server.Close()

	pager, slept := newTestPager(t, server.URL)

	items, err := pager.All(context.Background(), server.URL+"/items")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, decodeStrings(t, items))
	assert.Equal(t, 3, requests)
	assert.Empty(t, *slept)
}

func TestPager_All_BackoffThenSuccess(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, pageBody([]string{"x"}, ""))
	}))
	defer server.Close()

	pager, slept := newTestPager(t, server.URL)

	items, err := pager.All(context.Background(), server.URL+"/items")

	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, decodeStrings(t, items))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second}, *slept)
}

func TestPager_All_BackoffExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	pager, slept := newTestPager(t, server.URL)

	items, err := pager.All(context.Background(), server.URL+"/items")

	require.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Empty(t, items)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second}, *slept)
}

func TestPager_All_PartialPagesPreservedOnExhaustion(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, pageBody([]string{"a", "b"}, server.URL+"/items?page=2"))
	}))
	defer server.Close()

	pager, _ := newTestPager(t, server.URL)

	items, err := pager.All(context.Background(), server.URL+"/items")

	require.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Equal(t, []string{"a", "b"}, decodeStrings(t, items),
		"pages fetched before the failing page must be preserved")
}

func TestPager_All_MailboxNotMigratedSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"MailboxNotEnabledForRESTAPI","message":"on-premise"}}`)
	}))
	defer server.Close()

	pager, _ := newTestPager(t, server.URL)

	items, err := pager.All(context.Background(), server.URL+"/folders")

	require.NoError(t, err, "not-migrated mailboxes are a skippable condition, not an error")
	assert.Empty(t, items)
}

func TestPager_All_OtherErrorTerminal(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":"Authorization_RequestDenied","message":"denied"}}`)
	}))
	defer server.Close()

	pager, slept := newTestPager(t, server.URL)

	_, err := pager.All(context.Background(), server.URL+"/items")

	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, attempts, "non-throttle failures are not retried")
	assert.Empty(t, *slept)
}

func TestAllAs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":[{"id":"1","name":"one"},{"id":"2","name":"two"}]}`)
	}))
	defer server.Close()

	pager, _ := newTestPager(t, server.URL)

	type item struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	items, err := AllAs[item](context.Background(), pager, server.URL+"/items")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, item{ID: "1", Name: "one"}, items[0])
	assert.Equal(t, item{ID: "2", Name: "two"}, items[1])
}
