package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ncurl/jobwatch/cmd/jobwatch/commands"
	"github.com/ncurl/jobwatch/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "jobwatch",
	Short: "jobwatch - Job board polling and notification daemon",
	Long: `jobwatch polls job boards on configurable intervals, deduplicates
postings against a durable seen-set, filters them by keyword, location,
and experience rules, and delivers matches to Discord webhooks.

Available commands:
  run      - Start the polling daemon
  seen     - Inspect the seen-set
  version  - Show build information

Examples:
  jobwatch run                       # Poll with ./config.json and ./jobwatch.db
  jobwatch run --config prod.json    # Alternate config file
  jobwatch seen count                # How many postings have been processed`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON instead of console output")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.SeenCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
