package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteRoomStatsCSV writes per-room summary rows followed by the top-n
// organizer and attendee tallies.
func WriteRoomStatsCSV(w io.Writer, stats []*RoomStats, topN int) error {
	cw := csv.NewWriter(w)

	header := []string{"room", "from", "to", "events", "all_day", "kind", "who", "count"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range stats {
		base := []string{
			s.Room,
			s.From.UTC().Format(time.RFC3339),
			s.To.UTC().Format(time.RFC3339),
			strconv.Itoa(s.Events),
			strconv.Itoa(s.AllDay),
		}
		if err := cw.Write(append(append([]string{}, base...), "total", "", "")); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		for _, t := range TopN(s.Organizers, topN) {
			row := append(append([]string{}, base...), "organizer", t.Key, strconv.Itoa(t.Count))
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		for _, t := range TopN(s.Attendees, topN) {
			row := append(append([]string{}, base...), "attendee", t.Key, strconv.Itoa(t.Count))
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAuditCSV writes flattened directory-audit records.
func WriteAuditCSV(w io.Writer, records []AuditRecord) error {
	cw := csv.NewWriter(w)

	header := []string{"when", "category", "activity", "result", "initiator", "target", "role"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.When.UTC().Format(time.RFC3339),
			r.Category, r.Activity, r.Result, r.Initiator, r.Target, r.Role,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMailboxCSV writes per-folder item counts with a trailing total row
// per mailbox.
func WriteMailboxCSV(w io.Writer, mailboxes []*MailboxCounts) error {
	cw := csv.NewWriter(w)

	header := []string{"user", "migrated", "folder", "items", "unread", "hidden"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, m := range mailboxes {
		for _, f := range m.Folders {
			row := []string{
				m.User,
				strconv.FormatBool(m.Migrated),
				f.Folder,
				strconv.FormatInt(f.Items, 10),
				strconv.FormatInt(f.Unread, 10),
				strconv.FormatBool(f.Hidden),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		total := []string{
			m.User,
			strconv.FormatBool(m.Migrated),
			"(total)",
			strconv.FormatInt(m.Total, 10),
			strconv.FormatInt(m.Unread, 10),
			"false",
		}
		if err := cw.Write(total); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
