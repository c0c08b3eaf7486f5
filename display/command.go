// Package display renders analysis results for the terminal, as pterm
// tables or as JSON.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// EnvJSON forces JSON output when set to a truthy value
const EnvJSON = "FUZZYKEA_JSON"

// ShouldOutputJSON determines if a command should output JSON based on flags and environment
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return envJSON()
	}

	// Explicit --json on the command wins either way
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}

	return envJSON()
}

func envJSON() bool {
	switch os.Getenv(EnvJSON) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// OutputJSON marshals v and writes it to w
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
