package reports

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

	"github.com/kmcewan/m365admin/internal/graph"
)

func newTestPager(serverURL string) *graph.Pager {
	tokens := graph.StaticTokenSource("tok", time.Now().Add(time.Hour))
	client := graph.NewClient(tokens, graph.WithBaseURL(serverURL))
	return graph.NewPager(client)
}

// newTestPagerNoSleep drops backoff delays so throttle paths run instantly.
func newTestPagerNoSleep(t *testing.T, serverURL string) *graph.Pager {
	t.Helper()
	tokens := graph.StaticTokenSource("tok", time.Now().Add(time.Hour))
	client := graph.NewClient(tokens, graph.WithBaseURL(serverURL))
	return graph.NewPager(client, graph.WithSleep(func(time.Duration) {}))
}

func eventJSON(subject, organizer string, attendees ...string) string {
	attendeeList := ""
	for i, a := range attendees {
		if i > 0 {
			attendeeList += ","
		}
		attendeeList += fmt.Sprintf(`{"type":"required","emailAddress":{"address":%q}}`, a)
	}
	return fmt.Sprintf(`{
		"id":"ev-%s","subject":%q,"isAllDay":false,
		"organizer":{"emailAddress":{"address":%q}},
		"attendees":[%s],
		"start":{"dateTime":"2026-08-01T09:00:00.0000000","timeZone":"UTC"},
		"end":{"dateTime":"2026-08-01T10:00:00.0000000","timeZone":"UTC"}
	}`, subject, subject, organizer, attendeeList)
}

func TestCollectRoomStats(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprintf(w, `{"value":[%s]}`,
				eventJSON("standup", "bob@contoso.com", "alice@contoso.com", "room1@contoso.com"))
			return
		}
		assert.Contains(t, r.URL.Path, "/users/room1@contoso.com/calendarView")
		assert.NotEmpty(t, r.URL.Query().Get("startDateTime"))
		assert.NotEmpty(t, r.URL.Query().Get("endDateTime"))
		fmt.Fprintf(w, `{"value":[%s,%s],"@odata.nextLink":%q}`,
			eventJSON("planning", "alice@contoso.com", "bob@contoso.com", "carol@contoso.com"),
			eventJSON("review", "alice@contoso.com", "bob@contoso.com"),
			server.URL+"/next?page=2")
	}))
	defer server.Close()

	pager := newTestPager(server.URL)
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	stats, err := CollectRoomStats(context.Background(), pager, server.URL, "room1@contoso.com", from, to)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Events)
	assert.Equal(t, map[string]int{"alice@contoso.com": 2, "bob@contoso.com": 1}, stats.Organizers)
	assert.Equal(t, map[string]int{"bob@contoso.com": 2, "carol@contoso.com": 1, "alice@contoso.com": 1},
		stats.Attendees, "the room's own attendance is excluded")
}

func TestTallyEvent_SkipsRoomAndEmptyAddresses(t *testing.T) {
	stats := &RoomStats{
		Organizers: make(map[string]int),
		Attendees:  make(map[string]int),
	}

	var ev CalendarEvent
	raw := `{
		"isAllDay": true,
		"attendees": [
			{"type":"resource","emailAddress":{"address":"Room1@Contoso.com"}},
			{"type":"required","emailAddress":{"address":""}}
		]
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))

	tallyEvent(stats, &ev, "room1@contoso.com")

	assert.Equal(t, 1, stats.Events)
	assert.Equal(t, 1, stats.AllDay)
	assert.Empty(t, stats.Organizers)
	assert.Empty(t, stats.Attendees)
}

func TestTopN(t *testing.T) {
	m := map[string]int{"a": 3, "b": 5, "c": 3, "d": 1}

	tests := []struct {
		name     string
		n        int
		expected []Tally
	}{
		{
			name: "ranked with ties broken by key",
			n:    3,
			expected: []Tally{
				{Key: "b", Count: 5},
				{Key: "a", Count: 3},
				{Key: "c", Count: 3},
			},
		},
		{
			name: "zero keeps everything",
			n:    0,
			expected: []Tally{
				{Key: "b", Count: 5},
				{Key: "a", Count: 3},
				{Key: "c", Count: 3},
				{Key: "d", Count: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TopN(m, tt.n))
		})
	}
}

func TestCollectRoomStats_PartialOnThrottle(t *testing.T) {
	// The pager retries a throttled page internally; when its budget is
	// exhausted the events already fetched are still tallied.
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"value":[%s],"@odata.nextLink":%q}`,
			eventJSON("planning", "alice@contoso.com"),
			server.URL+"/next?page=2")
	}))
	defer server.Close()

	pager := newTestPagerNoSleep(t, server.URL)
	from := time.Now().AddDate(0, 0, -7)

	stats, err := CollectRoomStats(context.Background(), pager, server.URL, "room1@contoso.com", from, time.Now())

	require.ErrorIs(t, err, graph.ErrRateLimitExceeded)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Events, "pages fetched before the failure are preserved")
}
