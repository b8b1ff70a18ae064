package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/db"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/fetch"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/logger"
	"github.com/ncurl/jobwatch/notify"
	"github.com/ncurl/jobwatch/poll"
	"github.com/ncurl/jobwatch/seen"
)

var (
	configPathFlag string
	envPathFlag    string
	dbPathFlag     string
)

// RunCmd starts the polling daemon.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the polling daemon",
	Long: `Start the long-running poll loop: fetch every configured source on its
interval, deduplicate, filter, and notify. Stops cleanly on SIGINT/SIGTERM,
finishing the in-flight cycle's commits first.

Dry-run mode (DRY_RUN=true in the environment or .env file) logs would-be
notifications without delivering them.`,
	RunE: runDaemon,
}

func init() {
	RunCmd.Flags().StringVar(&configPathFlag, "config", "config.json", "Path to the JSON configuration file")
	RunCmd.Flags().StringVar(&envPathFlag, "env", ".env", "Path to the .env file with webhook URLs")
	RunCmd.Flags().StringVar(&dbPathFlag, "db", "jobwatch.db", "Path to the seen-set database file")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log := logger.Logger

	cfg, err := config.Load(configPathFlag, envPathFlag, log)
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	database, err := db.OpenWithMigrations(dbPathFlag, log)
	if err != nil {
		return errors.Wrap(err, "open seen-set database")
	}
	defer database.Close()

	client := httpclient.New(time.Duration(cfg.FetchTimeoutSeconds) * time.Second)

	built, err := fetch.Build(cfg, client)
	if err != nil {
		return errors.Wrap(err, "build fetchers")
	}
	if len(built) == 0 {
		return errors.NewInvalidConfigError("no sources configured")
	}

	dryRun := config.IsDryRun()
	if dryRun {
		log.Infow("Dry-run mode enabled, notifications will be logged but not delivered")
	}

	notifier := notify.NewDiscord(cfg, dryRun, log)
	scheduler := poll.New(cfg, built, seen.NewStore(database), notifier, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("jobwatch starting",
		"sources", len(built),
		"db_path", dbPathFlag,
		"dry_run", dryRun)

	return scheduler.Run(ctx)
}
