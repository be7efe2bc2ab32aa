package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kmcewan/m365admin/internal/graph"
	"github.com/kmcewan/m365admin/internal/reports"
)

var (
	roomsOutput   string
	roomsLookback int
)

var roomsCmd = &cobra.Command{
	Use:   "rooms [room-mailbox...]",
	Short: "Collect meeting-room usage statistics",
	Long: `Page each room mailbox's calendar view over the lookback window and
tally bookings, organizers and attendees. Room mailboxes default to the
config file's rooms list.`,
	RunE: runRooms,
}

func init() {
	roomsCmd.Flags().StringVarP(&roomsOutput, "output", "o", "", "CSV output path (default stdout)")
	roomsCmd.Flags().IntVar(&roomsLookback, "lookback", 0, "lookback window in days (overrides config)")
	rootCmd.AddCommand(roomsCmd)
}

func runRooms(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rooms := args
	if len(rooms) == 0 {
		rooms = cfg.Rooms.Rooms
	}
	if len(rooms) == 0 {
		return fmt.Errorf("no room mailboxes given or configured")
	}

	lookback := cfg.Rooms.LookbackDays
	if roomsLookback > 0 {
		lookback = roomsLookback
	}
	to := time.Now()
	from := to.AddDate(0, 0, -lookback)

	client, err := newGraphClient(cfg)
	if err != nil {
		return err
	}
	pager := graph.NewPager(client)

	ctx := context.Background()
	collected := make([]*reports.RoomStats, 0, len(rooms))
	partial := false
	for _, room := range rooms {
		stats, err := reports.CollectRoomStats(ctx, pager, client.BaseURL(), room, from, to)
		if err != nil {
			if errors.Is(err, graph.ErrAuth) {
				return err
			}
			if errors.Is(err, graph.ErrRateLimitExceeded) {
				partial = true
				log.Warn().Str("room", room).Msg("throttled, result set incomplete")
			} else {
				log.Error().Err(err).Str("room", room).Msg("room query failed")
			}
			if stats == nil {
				continue
			}
		}
		collected = append(collected, stats)
		log.Info().Str("room", room).Int("events", stats.Events).Msg("room collected")
	}

	if len(collected) == 0 {
		return fmt.Errorf("no room statistics collected")
	}

	out, closeOut, err := openOutput(roomsOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := reports.WriteRoomStatsCSV(out, collected, cfg.Rooms.TopN); err != nil {
		return err
	}
	if partial {
		log.Warn().Msg("report written from partial data")
	}
	return nil
}
