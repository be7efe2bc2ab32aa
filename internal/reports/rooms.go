// Package reports collects tenant usage statistics through paginated
// Microsoft Graph queries.
package reports

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kmcewan/m365admin/internal/graph"
)

// CalendarEvent is a meeting-room calendar entry from the calendarView API.
type CalendarEvent struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	IsAllDay  bool   `json:"isAllDay"`
	Organizer *struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"organizer"`
	Attendees []struct {
		Type         string `json:"type"`
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"attendees"`
	Start struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"end"`
}

// RoomStats summarises one room mailbox's bookings over a window.
// Tallies are plain maps constructed per invocation; nothing is shared
// across rooms or runs.
type RoomStats struct {
	Room       string
	From, To   time.Time
	Events     int
	AllDay     int
	Organizers map[string]int
	Attendees  map[string]int
}

// Tally is one name-count pair of a ranked tally.
type Tally struct {
	Key   string
	Count int
}

// roomPageSize is the calendarView page size.
const roomPageSize = 100

// CollectRoomStats pages the room mailbox's calendar view between from and
// to and tallies organizers and attendees. Room mailboxes themselves appear
// as attendees of their own bookings and are excluded from the attendee
// tally.
func CollectRoomStats(ctx context.Context, pager *graph.Pager, base, room string, from, to time.Time) (*RoomStats, error) {
	uri := fmt.Sprintf("%s/users/%s/calendarView?startDateTime=%s&endDateTime=%s&$top=%d",
		base, url.PathEscape(room),
		url.QueryEscape(from.UTC().Format(time.RFC3339)),
		url.QueryEscape(to.UTC().Format(time.RFC3339)),
		roomPageSize)

	events, err := graph.AllAs[CalendarEvent](ctx, pager, uri)

	stats := &RoomStats{
		Room:       room,
		From:       from,
		To:         to,
		Organizers: make(map[string]int),
		Attendees:  make(map[string]int),
	}
	for i := range events {
		tallyEvent(stats, &events[i], room)
	}

	// Pages fetched before a throttling failure are still tallied; the
	// error keeps the caller from presenting them as complete.
	if err != nil {
		return stats, fmt.Errorf("calendar view for %s: %w", room, err)
	}
	return stats, nil
}

// tallyEvent folds one event into the stats.
func tallyEvent(stats *RoomStats, ev *CalendarEvent, room string) {
	stats.Events++
	if ev.IsAllDay {
		stats.AllDay++
	}

	if ev.Organizer != nil && ev.Organizer.EmailAddress.Address != "" {
		stats.Organizers[strings.ToLower(ev.Organizer.EmailAddress.Address)]++
	}

	for _, a := range ev.Attendees {
		addr := strings.ToLower(a.EmailAddress.Address)
		if addr == "" || strings.EqualFold(addr, room) {
			continue
		}
		stats.Attendees[addr]++
	}
}

// TopN ranks a tally map by descending count, ties broken by key, and
// returns at most n entries.
func TopN(m map[string]int, n int) []Tally {
	ranked := make([]Tally, 0, len(m))
	for k, v := range m {
		ranked = append(ranked, Tally{Key: k, Count: v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
