// Package display renders query results for the CLI: pterm tables for people,
// JSON for scripts.
package display

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// OutputEnv forces JSON output when set to "json"
const OutputEnv = "SCHOLARFED_OUTPUT"

// ShouldOutputJSON reports whether cmd should print JSON: an explicit --json
// flag wins, then the root persistent flag, then SCHOLARFED_OUTPUT.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return jsonFromEnv()
	}
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool("json")
		return v
	}
	if v, err := cmd.Root().PersistentFlags().GetBool("json"); err == nil && v {
		return true
	}
	return jsonFromEnv()
}

func jsonFromEnv() bool {
	return strings.EqualFold(os.Getenv(OutputEnv), "json")
}
