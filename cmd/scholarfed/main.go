package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teranos/scholarfed/am"
	"github.com/teranos/scholarfed/cmd/scholarfed/commands"
	"github.com/teranos/scholarfed/errors"
	"github.com/teranos/scholarfed/logger"
)

var rootCmd = &cobra.Command{
	Use:   "scholarfed",
	Short: "scholarfed - federated journal and classification queries",
	Long: `scholarfed answers questions about academic journals by querying every
configured store at once and reconciling the answers into one result.

Journal metadata (title, languages, publisher, licence, APC, DOAJ Seal) comes
from SPARQL endpoints; subject categories, quartiles and research areas come
from SQLite classification databases. Journals are joined across stores by
their ISSN/EISSN identifiers.

Available commands:
  am      - Show and validate configuration
  load    - Load DOAJ CSV or classification JSON into a store
  query   - Query journals, categories and areas
  version - Show version information

Examples:
  scholarfed load journals doaj.csv
  scholarfed load categories scimago.json
  scholarfed query entity 0028-0836
  scholarfed query diamond --area Medicine --quartile Q1
  scholarfed query journals --license "CC BY" --json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")

		jsonLogs := false
		if cfg, err := am.Load(); err == nil {
			jsonLogs = cfg.Log.JSON
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}

		ctx := logger.WithRequestID(cmd.Context(), uuid.NewString())
		cmd.SetContext(logger.WithComponent(ctx, cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.LoadCmd)
	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
