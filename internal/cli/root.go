// Package cli wires the m365admin commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmcewan/m365admin/internal/config"
	"github.com/kmcewan/m365admin/internal/graph"
	"github.com/kmcewan/m365admin/internal/logger"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// verbose enables debug logging.
	verbose bool

	// configPath overrides the configuration file location.
	configPath string
)

// Environment variables carrying the pre-acquired access token.
// Token acquisition happens out-of-band (certificate credential flow);
// the tool only consumes the result.
const (
	tokenEnv       = "M365ADMIN_TOKEN"
	tokenExpiryEnv = "M365ADMIN_TOKEN_EXPIRY"
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "m365admin",
	Short: "Tenant administration tasks over Microsoft Graph",
	Long: `m365admin runs tenant-management batch tasks against Microsoft Graph:
uploading files to SharePoint document libraries, creating calendar events,
and collecting audit, meeting-room and mailbox statistics.

Each command is a one-shot batch run: failures on individual items are
logged and the batch continues with the next item.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.m365admin/config.toml)")

	// Set verbose mode before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}

// loadConfig reads the configuration from the --config path or the default
// location.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// tokenFromEnv builds a token source from the environment. The expiry
// defaults to one hour out when unset, matching the platform's token
// lifetime.
func tokenFromEnv() (graph.TokenSource, error) {
	value := os.Getenv(tokenEnv)
	if value == "" {
		return nil, fmt.Errorf("%w: %s is not set", graph.ErrAuth, tokenEnv)
	}

	expiresAt := time.Now().Add(time.Hour)
	if raw := os.Getenv(tokenExpiryEnv); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s: %w", graph.ErrAuth, tokenExpiryEnv, err)
		}
		expiresAt = parsed
	}

	return graph.NewCachingTokenSource(graph.StaticTokenSource(value, expiresAt)), nil
}

// newGraphClient builds the Graph client for a command run.
func newGraphClient(cfg *config.Config) (*graph.Client, error) {
	tokens, err := tokenFromEnv()
	if err != nil {
		return nil, err
	}

	opts := []graph.ClientOption{}
	if cfg.GraphEndpoint != "" {
		opts = append(opts, graph.WithBaseURL(cfg.GraphEndpoint))
	}
	return graph.NewClient(tokens, opts...), nil
}

// openOutput opens the report output, stdout when path is empty.
// The returned close function is a no-op for stdout.
func openOutput(path string) (*os.File, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output %s: %w", path, err)
	}
	return f, f.Close, nil
}
