package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kmcewan/m365admin/internal/calendar"
)

var (
	eventSubject   string
	eventBody      string
	eventStart     string
	eventEnd       string
	eventZone      string
	eventAttendees []string
)

var eventCmd = &cobra.Command{
	Use:   "event [user]",
	Short: "Create a calendar event in a user's default calendar",
	Long: `Create a calendar event in the given user's default calendar.

Start and end are local wall-clock times in the given time zone,
formatted as 2006-01-02T15:04.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvent,
}

func init() {
	eventCmd.Flags().StringVar(&eventSubject, "subject", "", "event subject (required)")
	eventCmd.Flags().StringVar(&eventBody, "body", "", "event body text")
	eventCmd.Flags().StringVar(&eventStart, "start", "", "start time, 2006-01-02T15:04 (required)")
	eventCmd.Flags().StringVar(&eventEnd, "end", "", "end time, 2006-01-02T15:04 (required)")
	eventCmd.Flags().StringVar(&eventZone, "zone", "UTC", "IANA time zone for start and end")
	eventCmd.Flags().StringArrayVar(&eventAttendees, "attendee", nil, "attendee address (repeatable)")
	rootCmd.AddCommand(eventCmd)
}

const eventTimeLayout = "2006-01-02T15:04"

func runEvent(cmd *cobra.Command, args []string) error {
	if eventSubject == "" || eventStart == "" || eventEnd == "" {
		return fmt.Errorf("--subject, --start and --end are required")
	}

	start, err := time.Parse(eventTimeLayout, eventStart)
	if err != nil {
		return fmt.Errorf("parse --start: %w", err)
	}
	end, err := time.Parse(eventTimeLayout, eventEnd)
	if err != nil {
		return fmt.Errorf("parse --end: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("--end must be after --start")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newGraphClient(cfg)
	if err != nil {
		return err
	}

	ev := calendar.NewEvent(eventSubject, eventBody, start, end, eventZone, eventAttendees)
	created, err := calendar.Create(context.Background(), client, args[0], ev)
	if err != nil {
		return err
	}

	log.Info().Str("id", created.ID).Str("link", created.WebLink).Msg("event created")
	return nil
}
