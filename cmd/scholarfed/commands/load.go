package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/scholarfed/display"
	"github.com/teranos/scholarfed/errors"
	"github.com/teranos/scholarfed/graphstore"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/relational"
	"github.com/teranos/scholarfed/source"
)

// LoadCmd groups the bulk loaders
var LoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load source files into the configured stores",
	Long: `Load source files into the first configured store of each kind.

  journals    DOAJ journal CSV export -> first graph endpoint (graph.endpoints)
  categories  classification JSON     -> first database path (database.paths)

Loading the same file twice adds nothing.`,
}

var loadJournalsCmd = &cobra.Command{
	Use:   "journals <file.csv>",
	Short: "Load a DOAJ CSV export into the first SPARQL endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		endpoint := cfg.PrimaryEndpoint()
		if endpoint == "" {
			return errors.WithHint(errors.New("no graph endpoint configured"), "set graph.endpoints in am.toml")
		}

		l := graphstore.NewLoader(endpoint, graphClient(cfg), logger.Logger)
		if l.DbPathOrURL() == "" {
			return errors.WithHint(
				errors.Newf("endpoint %s refused by client policy", endpoint),
				"set graph.allow_private = true for local endpoints")
		}
		if size, _ := cmd.Flags().GetInt("batch-size"); size > 0 {
			l.BatchSize = size
		}
		return push(cmd, l, args[0])
	},
}

var loadCategoriesCmd = &cobra.Command{
	Use:   "categories <file.json>",
	Short: "Load classification JSON into the first SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		path := cfg.PrimaryDatabase()
		if path == "" {
			return errors.WithHint(errors.New("no database configured"), "set database.paths in am.toml")
		}
		return push(cmd, relational.NewLoader(path, logger.Logger), args[0])
	},
}

func init() {
	loadJournalsCmd.Flags().Int("batch-size", graphstore.DefaultBatchSize, "Journals per INSERT DATA update")

	LoadCmd.AddCommand(loadJournalsCmd)
	LoadCmd.AddCommand(loadCategoriesCmd)
}

func push(cmd *cobra.Command, u source.Uploader, path string) error {
	start := time.Now()
	if err := u.PushDataToDB(cmd.Context(), path); err != nil {
		return err
	}
	if !display.ShouldOutputJSON(cmd) {
		pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Loaded %s into %s in %s", path, u.DbPathOrURL(), time.Since(start).Round(time.Millisecond))
		return nil
	}
	return display.WriteJSON(cmd.OutOrStdout(), map[string]string{
		"file":   path,
		"target": u.DbPathOrURL(),
	})
}
