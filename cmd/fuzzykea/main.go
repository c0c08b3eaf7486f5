package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/fuzzykea/cmd/fuzzykea/commands"
	"github.com/teranos/fuzzykea/display"
	"github.com/teranos/fuzzykea/logger"
)

var rootCmd = &cobra.Command{
	Use:   "fuzzykea",
	Short: "fuzzyKEA - kinase enrichment for phosphosite lists",
	Long: `fuzzyKEA - kinase enrichment analysis with position-tolerant site matching.

fuzzyKEA takes a list of phosphorylation sites, matches them against a
kinase-substrate reference (PhosphoSitePlus) allowing small position
shifts, and tests every kinase for over-representation at site and
substrate level.

Available commands:
  analyze - Run kinase enrichment on a site list
  ix      - Import reference data into the local database
  db      - Inspect the local database
  am      - Manage configuration ("I am")
  server  - Start the HTTP API
  example - Print example input
  version - Show version information

Examples:
  fuzzykea example | fuzzykea analyze
  fuzzykea analyze --input sites.txt --tolerance 3 --export results/
  fuzzykea ix psp Kinase_Substrate_Dataset.txt
  fuzzykea server`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr; warnings only unless -v is given
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(display.ShouldOutputJSON(cmd), verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output JSON instead of tables")

	rootCmd.AddCommand(commands.AnalyzeCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.IxCmd)
	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.ExampleCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, hint := range commands.Hints(err) {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
