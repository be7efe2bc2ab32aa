package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kmcewan/m365admin/internal/graph"
	"github.com/kmcewan/m365admin/internal/sharepoint"
)

var (
	uploadEndpoint string
	uploadFolder   string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload files to a SharePoint document library",
	Long: `Upload one or more local files to a SharePoint document library folder.

Files under 3 MiB are sent as a single direct PUT; larger files go through
an upload session, fragmented above 249 MiB. A failed file is logged and
the batch continues with the next one.

The destination site endpoint and folder come from the config file and can
be overridden with flags.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadEndpoint, "site", "", "Graph site endpoint (overrides config)")
	uploadCmd.Flags().StringVar(&uploadFolder, "folder", "", "destination folder (overrides config)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	endpoint := cfg.Upload.SiteEndpoint
	if uploadEndpoint != "" {
		endpoint = uploadEndpoint
	}
	folder := cfg.Upload.Folder
	if uploadFolder != "" {
		folder = uploadFolder
	}
	if endpoint == "" || folder == "" {
		return fmt.Errorf("destination site endpoint and folder are required")
	}

	tokens, err := tokenFromEnv()
	if err != nil {
		return err
	}

	ctx := context.Background()
	token, err := tokens.Token(ctx)
	if err != nil {
		return err
	}

	uploader := sharepoint.NewUploader()
	failed := 0
	for _, path := range args {
		item, err := uploader.UploadFile(ctx, token.Value, endpoint, folder, path)
		if err != nil {
			// Auth failures abort the batch; nothing further can succeed.
			if errors.Is(err, graph.ErrAuth) {
				return err
			}
			failed++
			log.Error().Err(err).Str("file", path).Msg("upload failed")
			continue
		}

		logEvent := log.Info().Str("file", path)
		if item != nil {
			logEvent = logEvent.
				Str("size", units.BytesSize(float64(item.Size))).
				Str("url", item.WebURL)
		}
		logEvent.Msg("uploaded")
	}

	if failed == len(args) {
		return fmt.Errorf("all %d uploads failed", failed)
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("total", len(args)).Msg("batch finished with failures")
	}
	return nil
}
