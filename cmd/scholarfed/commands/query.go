package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/scholarfed/display"
	"github.com/teranos/scholarfed/engine"
	"github.com/teranos/scholarfed/entity"
	"github.com/teranos/scholarfed/errors"
	"github.com/teranos/scholarfed/logger"
)

// QueryCmd groups the federated queries
var QueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query journals, categories and areas across every configured store",
	Long: `Query every configured store and print the reconciled result.

A store that fails contributes nothing; the query still answers from the rest.
Run with -v to see which stores failed.

Examples:
  scholarfed query entity 1234-5678
  scholarfed query journals --title medicine
  scholarfed query journals --license "CC BY,CC0"
  scholarfed query categories --quartile Q1,Q2
  scholarfed query areas --category Oncology
  scholarfed query in-categories --category Oncology --quartile Q1
  scholarfed query in-areas --area Medicine --license "CC BY"
  scholarfed query diamond --area Medicine --quartile Q1`,
}

var queryEntityCmd = &cobra.Command{
	Use:   "entity <id>",
	Short: "Resolve an identifier to a journal, category or area",
	Args:  cobra.ExactArgs(1),
	RunE: withEngine(func(cmd *cobra.Command, e *engine.FullQueryEngine, args []string) error {
		result, ok := e.GetEntityByID(cmd.Context(), args[0])
		if !ok {
			return errors.Mark(errors.Newf("no journal, category or area has identifier %q", args[0]), errors.ErrNotFound)
		}
		return printEntity(cmd, result)
	}),
}

var queryJournalsCmd = &cobra.Command{
	Use:   "journals",
	Short: "List journals, optionally filtered by one attribute",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(cmd *cobra.Command, e *engine.FullQueryEngine, args []string) error {
		journals, err := selectJournals(cmd, e)
		if err != nil {
			return err
		}
		return printJournals(cmd, journals)
	}),
}

var queryCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories, by id, quartile or area",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(cmd *cobra.Command, e *engine.FullQueryEngine, args []string) error {
		ctx := cmd.Context()
		id, _ := cmd.Flags().GetString("id")
		quartiles, _ := cmd.Flags().GetStringSlice("quartile")
		areas, _ := cmd.Flags().GetStringSlice("area")

		if err := exclusive(cmd, "id", "quartile", "area"); err != nil {
			return err
		}
		var categories []entity.Category
		switch {
		case id != "":
			categories = e.GetCategoryByID(ctx, id)
		case cmd.Flags().Changed("quartile"):
			categories = e.GetCategoriesWithQuartile(ctx, quartiles)
		case cmd.Flags().Changed("area"):
			categories = e.GetCategoriesAssignedToAreas(ctx, areas)
		default:
			categories = e.GetAllCategories(ctx)
		}
		return printCategories(cmd, categories)
	}),
}

var queryAreasCmd = &cobra.Command{
	Use:   "areas",
	Short: "List areas, by id or category",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(cmd *cobra.Command, e *engine.FullQueryEngine, args []string) error {
		ctx := cmd.Context()
		id, _ := cmd.Flags().GetString("id")
		categories, _ := cmd.Flags().GetStringSlice("category")

		if err := exclusive(cmd, "id", "category"); err != nil {
			return err
		}
		var areas []entity.Area
		switch {
		case id != "":
			areas = e.GetAreaByID(ctx, id)
		case cmd.Flags().Changed("category"):
			areas = e.GetAreasAssignedToCategories(ctx, categories)
		default:
			areas = e.GetAllAreas(ctx)
		}
		return printAreas(cmd, areas)
	}),
}

var queryInCategoriesCmd = &cobra.Command{
	Use:   "in-categories",
	Short: "Journals classified in any of the categories, at any of the quartiles",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(cmd *cobra.Command, e *engine.FullQueryEngine, args []string) error {
		categories, _ := cmd.Flags().GetStringSlice("category")
		quartiles, _ := cmd.Flags().GetStringSlice("quartile")
		return printJournals(cmd, e.GetJournalsInCategoriesWithQuartile(cmd.Context(), categories, quartiles))
	}),
}

var queryInAreasCmd = &cobra.Command{
	Use:   "in-areas",
	Short: "Journals in any of the areas under any of the licenses",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(cmd *cobra.Command, e *engine.FullQueryEngine, args []string) error {
		areas, _ := cmd.Flags().GetStringSlice("area")
		licenses, _ := cmd.Flags().GetStringSlice("license")
		return printJournals(cmd, e.GetJournalsInAreasWithLicense(cmd.Context(), areas, licenses))
	}),
}

var queryDiamondCmd = &cobra.Command{
	Use:   "diamond",
	Short: "Diamond open access journals (no APC, DOAJ Seal) by area, category and quartile",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(cmd *cobra.Command, e *engine.FullQueryEngine, args []string) error {
		areas, _ := cmd.Flags().GetStringSlice("area")
		categories, _ := cmd.Flags().GetStringSlice("category")
		quartiles, _ := cmd.Flags().GetStringSlice("quartile")
		return printJournals(cmd, e.GetDiamondJournalsInAreasAndCategoriesWithQuartile(cmd.Context(), areas, categories, quartiles))
	}),
}

func init() {
	f := queryJournalsCmd.Flags()
	f.String("id", "", "Journal with this ISSN or EISSN")
	f.String("title", "", "Title contains (case-insensitive)")
	f.String("publisher", "", "Publisher contains (case-insensitive)")
	f.StringSlice("license", nil, "Any of these licenses (comma-separated)")
	f.Bool("apc", false, "Journals charging an article processing fee")
	f.Bool("no-apc", false, "Journals without an article processing fee")
	f.Bool("seal", false, "Journals holding the DOAJ Seal")

	queryCategoriesCmd.Flags().String("id", "", "Category with this identifier")
	queryCategoriesCmd.Flags().StringSlice("quartile", nil, "Categories ranked at any of these quartiles (empty: all)")
	queryCategoriesCmd.Flags().StringSlice("area", nil, "Categories assigned to any of these areas (empty: all)")

	queryAreasCmd.Flags().String("id", "", "Area with this identifier")
	queryAreasCmd.Flags().StringSlice("category", nil, "Areas assigned to any of these categories (empty: all)")

	queryInCategoriesCmd.Flags().StringSlice("category", nil, "Category names (empty: any)")
	queryInCategoriesCmd.Flags().StringSlice("quartile", nil, "Quartiles (empty: any)")

	queryInAreasCmd.Flags().StringSlice("area", nil, "Area names (empty: any)")
	queryInAreasCmd.Flags().StringSlice("license", nil, "Licenses (empty: any)")

	queryDiamondCmd.Flags().StringSlice("area", nil, "Area names or ids (empty: any)")
	queryDiamondCmd.Flags().StringSlice("category", nil, "Category names (empty: any)")
	queryDiamondCmd.Flags().StringSlice("quartile", nil, "Quartiles (empty: any)")

	QueryCmd.AddCommand(queryEntityCmd)
	QueryCmd.AddCommand(queryJournalsCmd)
	QueryCmd.AddCommand(queryCategoriesCmd)
	QueryCmd.AddCommand(queryAreasCmd)
	QueryCmd.AddCommand(queryInCategoriesCmd)
	QueryCmd.AddCommand(queryInAreasCmd)
	QueryCmd.AddCommand(queryDiamondCmd)
}

// withEngine loads the configuration and builds the engine around run
func withEngine(run func(*cobra.Command, *engine.FullQueryEngine, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if cmd.Context() == nil {
			cmd.SetContext(context.Background())
		}
		cfg, err := loadConfig()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}

		log := logger.FromContext(cmd.Context(), logger.Logger)
		e, closeStores := BuildEngine(cfg, log)
		defer closeStores()

		log.Debugw("engine ready",
			logger.FieldHandlers, e.JournalHandlerCount()+e.CategoryHandlerCount(),
			logger.FieldQuery, cmd.CommandPath(),
		)
		return run(cmd, e, args)
	}
}

func selectJournals(cmd *cobra.Command, e *engine.FullQueryEngine) ([]entity.Journal, error) {
	if err := exclusive(cmd, "id", "title", "publisher", "license", "apc", "no-apc", "seal"); err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	f := cmd.Flags()

	switch {
	case f.Changed("id"):
		id, _ := f.GetString("id")
		result, ok := e.GetEntityByID(ctx, id)
		if !ok || !result.IsJournal() {
			return []entity.Journal{}, nil
		}
		return []entity.Journal{*result.Journal}, nil
	case f.Changed("title"):
		title, _ := f.GetString("title")
		return e.GetJournalsWithTitle(ctx, title), nil
	case f.Changed("publisher"):
		publisher, _ := f.GetString("publisher")
		return e.GetJournalsPublishedBy(ctx, publisher), nil
	case f.Changed("license"):
		licenses, _ := f.GetStringSlice("license")
		return e.GetJournalsWithLicense(ctx, licenses), nil
	case f.Changed("apc"):
		return e.GetJournalsWithAPC(ctx), nil
	case f.Changed("no-apc"):
		return e.GetJournalsWithoutAPC(ctx), nil
	case f.Changed("seal"):
		return e.GetJournalsWithDOAJSeal(ctx), nil
	default:
		return e.GetAllJournals(ctx), nil
	}
}

// exclusive fails when more than one of names was set on the command line
func exclusive(cmd *cobra.Command, names ...string) error {
	var set []string
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			set = append(set, "--"+n)
		}
	}
	if len(set) > 1 {
		return errors.Mark(errors.Newf("choose one filter, got %v", set), errors.ErrInvalidRequest)
	}
	return nil
}

func printJournals(cmd *cobra.Command, journals []entity.Journal) error {
	if display.ShouldOutputJSON(cmd) {
		views := make([]entity.JournalView, 0, len(journals))
		for _, j := range journals {
			views = append(views, j.View())
		}
		return display.WriteJSON(cmd.OutOrStdout(), views)
	}
	return display.JournalTable(cmd.OutOrStdout(), journals)
}

func printCategories(cmd *cobra.Command, categories []entity.Category) error {
	if display.ShouldOutputJSON(cmd) {
		views := make([]entity.CategoryView, 0, len(categories))
		for _, c := range categories {
			views = append(views, c.View())
		}
		return display.WriteJSON(cmd.OutOrStdout(), views)
	}
	return display.CategoryTable(cmd.OutOrStdout(), categories)
}

func printAreas(cmd *cobra.Command, areas []entity.Area) error {
	if display.ShouldOutputJSON(cmd) {
		views := make([]entity.AreaView, 0, len(areas))
		for _, a := range areas {
			views = append(views, a.View())
		}
		return display.WriteJSON(cmd.OutOrStdout(), views)
	}
	return display.AreaTable(cmd.OutOrStdout(), areas)
}

// entityView is the JSON form of an EntityResult
type entityView struct {
	Kind     string               `json:"kind"`
	Journal  *entity.JournalView  `json:"journal,omitempty"`
	Category *entity.CategoryView `json:"category,omitempty"`
	Area     *entity.AreaView     `json:"area,omitempty"`
}

func printEntity(cmd *cobra.Command, r engine.EntityResult) error {
	if display.ShouldOutputJSON(cmd) {
		v := entityView{Kind: "classification"}
		if r.IsJournal() {
			jv := r.Journal.View()
			v.Kind, v.Journal = "journal", &jv
		}
		if r.Category != nil {
			cv := r.Category.View()
			v.Category = &cv
		}
		if r.Area != nil {
			av := r.Area.View()
			v.Area = &av
		}
		return display.WriteJSON(cmd.OutOrStdout(), v)
	}

	out := cmd.OutOrStdout()
	if r.IsJournal() {
		return display.JournalTable(out, []entity.Journal{*r.Journal})
	}
	if r.Category != nil {
		if err := display.CategoryTable(out, []entity.Category{*r.Category}); err != nil {
			return err
		}
	}
	if r.Area != nil {
		if r.Category != nil {
			fmt.Fprintln(out)
		}
		return display.AreaTable(out, []entity.Area{*r.Area})
	}
	return nil
}
