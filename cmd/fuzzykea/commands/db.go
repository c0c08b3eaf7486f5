package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/fuzzykea/am"
	"github.com/teranos/fuzzykea/display"
	"github.com/teranos/fuzzykea/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the local reference database",
	Long: `Inspect the local SQLite reference database.

Examples:
  fuzzykea db stats               # Row counts and latest imports
  fuzzykea db stats --json        # Same, as JSON`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  "Display stored kinase-substrate edges, pathway rows and the latest import of each kind",
	RunE:  runDbStats,
}

var dbPathFlag string

func init() {
	DbCmd.PersistentFlags().StringVar(&dbPathFlag, "db-path", "", "Custom database path (overrides config)")
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	store, err := openStore(cfg, dbPathFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to read database statistics")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), st)
	}
	path := dbPathFlag
	if path == "" {
		path = cfg.GetDatabasePath()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n\n", path)
	return display.RenderStats(cmd.OutOrStdout(), st)
}
