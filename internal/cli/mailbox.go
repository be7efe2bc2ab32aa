package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kmcewan/m365admin/internal/graph"
	"github.com/kmcewan/m365admin/internal/reports"
)

var mailboxOutput string

var mailboxCmd = &cobra.Command{
	Use:   "mailbox [user...]",
	Short: "Count mailbox items by folder",
	Long: `Page each user's mail folders, hidden folders included, and write the
per-folder item counts as CSV. Mailboxes not yet migrated to Exchange
Online are skipped with a warning; the batch continues.`,
	RunE: runMailbox,
}

func init() {
	mailboxCmd.Flags().StringVarP(&mailboxOutput, "output", "o", "", "CSV output path (default stdout)")
	rootCmd.AddCommand(mailboxCmd)
}

func runMailbox(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	users := args
	if len(users) == 0 {
		users = cfg.Mailbox.Users
	}
	if len(users) == 0 {
		return fmt.Errorf("no users given or configured")
	}

	client, err := newGraphClient(cfg)
	if err != nil {
		return err
	}
	pager := graph.NewPager(client)

	ctx := context.Background()
	collected := make([]*reports.MailboxCounts, 0, len(users))
	for _, user := range users {
		counts, err := reports.CollectMailboxCounts(ctx, pager, client.BaseURL(), user)
		if err != nil {
			if errors.Is(err, graph.ErrAuth) {
				return err
			}
			log.Error().Err(err).Str("user", user).Msg("mailbox query failed")
			continue
		}
		if !counts.Migrated {
			log.Warn().Str("user", user).Msg("mailbox not migrated, skipped")
		}
		collected = append(collected, counts)
	}

	if len(collected) == 0 {
		return fmt.Errorf("no mailbox counts collected")
	}

	out, closeOut, err := openOutput(mailboxOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	return reports.WriteMailboxCSV(out, collected)
}
