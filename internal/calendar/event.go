// Package calendar creates calendar events through Microsoft Graph.
package calendar

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kmcewan/m365admin/internal/graph"
)

// DateTimeZone is the Graph dateTimeTimeZone value.
type DateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Attendee is one invitee on an event.
type Attendee struct {
	Type         string `json:"type"`
	EmailAddress struct {
		Address string `json:"address"`
		Name    string `json:"name,omitempty"`
	} `json:"emailAddress"`
}

// Event is the request body for event creation.
type Event struct {
	Subject string `json:"subject"`
	Body    struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	Start     DateTimeZone `json:"start"`
	End       DateTimeZone `json:"end"`
	Location  *Location    `json:"location,omitempty"`
	Attendees []Attendee   `json:"attendees,omitempty"`
}

// Location is an event location.
type Location struct {
	DisplayName string `json:"displayName"`
}

// CreatedEvent is the service's view of a created event.
type CreatedEvent struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	WebLink string `json:"webLink"`
}

// NewEvent builds an event with a plain-text body in the given zone.
func NewEvent(subject, body string, start, end time.Time, zone string, attendees []string) *Event {
	ev := &Event{Subject: subject}
	ev.Body.ContentType = "text"
	ev.Body.Content = body
	ev.Start = DateTimeZone{DateTime: start.Format("2006-01-02T15:04:05"), TimeZone: zone}
	ev.End = DateTimeZone{DateTime: end.Format("2006-01-02T15:04:05"), TimeZone: zone}

	for _, addr := range attendees {
		var a Attendee
		a.Type = "required"
		a.EmailAddress.Address = addr
		ev.Attendees = append(ev.Attendees, a)
	}
	return ev
}

// Create posts the event into the user's default calendar.
func Create(ctx context.Context, client *graph.Client, user string, ev *Event) (*CreatedEvent, error) {
	uri := fmt.Sprintf("%s/users/%s/calendar/events", client.BaseURL(), url.PathEscape(user))

	var created CreatedEvent
	if err := client.PostJSON(ctx, uri, ev, &created); err != nil {
		return nil, fmt.Errorf("create event for %s: %w", user, err)
	}
	return &created, nil
}
