package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ncurl/jobwatch/db"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/logger"
	"github.com/ncurl/jobwatch/seen"
)

// SeenCmd groups seen-set inspection subcommands.
var SeenCmd = &cobra.Command{
	Use:   "seen",
	Short: "Inspect the seen-set",
	Long: `Inspect the durable seen-set that deduplicates postings across cycles.

Examples:
  jobwatch seen count              # Total postings processed
  jobwatch seen count --db prod.db # Against a specific database file`,
}

var seenDBPathFlag string

var seenCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show how many postings have been processed",
	RunE:  runSeenCount,
}

func init() {
	SeenCmd.PersistentFlags().StringVar(&seenDBPathFlag, "db", "jobwatch.db", "Path to the seen-set database file")
	SeenCmd.AddCommand(seenCountCmd)
}

func runSeenCount(cmd *cobra.Command, args []string) error {
	database, err := db.OpenWithMigrations(seenDBPathFlag, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "open seen-set database")
	}
	defer database.Close()

	count, err := seen.NewStore(database).Count()
	if err != nil {
		return errors.Wrap(err, "count seen postings")
	}

	fmt.Printf("%d postings processed\n", count)
	return nil
}
