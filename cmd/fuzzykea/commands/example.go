package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/fuzzykea/display"
	"github.com/teranos/fuzzykea/site"
)

// ExampleCmd prints sample input that can be piped into analyze
var ExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print example input",
	Long: `Print a small phosphosite list in the accepted input format.

Example:
  fuzzykea example | fuzzykea analyze`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(cmd.OutOrStdout(), map[string]string{"text": site.ExampleInput})
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), site.ExampleInput)
		return err
	},
}
