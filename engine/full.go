package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/scholarfed/entity"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/source"
)

// FullQueryEngine adds compound queries that filter on data only available
// after journals and their classification have been joined.
type FullQueryEngine struct {
	*BasicQueryEngine
}

// NewFullQueryEngine creates an engine with empty registries.
func NewFullQueryEngine(cfg Config, log *zap.SugaredLogger) *FullQueryEngine {
	return &FullQueryEngine{BasicQueryEngine: NewBasicQueryEngine(cfg, log)}
}

// GetJournalsInCategoriesWithQuartile returns journals with at least one
// category whose name is in categories and whose quartile is in quartiles.
// Either filter matches everything when empty.
func (e *FullQueryEngine) GetJournalsInCategoriesWithQuartile(ctx context.Context, categories, quartiles []string) []entity.Journal {
	names, tiers := toSet(categories), toSet(quartiles)

	out := make([]entity.Journal, 0)
	for _, j := range e.GetAllJournals(ctx) {
		if hasMatchingCategory(j, names, tiers) {
			out = append(out, j)
		}
	}
	e.log(ctx).Debugw("compound query complete",
		logger.FieldQuery, "journals_in_categories_with_quartile",
		logger.FieldCount, len(out),
	)
	return out
}

// GetJournalsInAreasWithLicense returns journals carrying any of licenses
// that belong to any of areas. Empty licenses means any license; empty areas
// disables the area filter.
func (e *FullQueryEngine) GetJournalsInAreasWithLicense(ctx context.Context, areas, licenses []string) []entity.Journal {
	snap := e.snapshot()
	log := e.log(ctx)

	areaFilter := toSet(areas)
	var members map[string]struct{}
	if len(areaFilter) > 0 {
		areaList := setToSlice(areaFilter)
		rows := fanOut(ctx, e.BasicQueryEngine, kindCategory, "get_journals_by_area", snap.categories,
			func(ctx context.Context, h source.CategorySource) ([]source.CategoryRow, error) {
				return h.GetJournalsByArea(ctx, areaList)
			})
		members = make(map[string]struct{})
		for _, r := range rows {
			for _, id := range r.Identifiers() {
				members[id] = struct{}{}
			}
		}
		if len(members) == 0 {
			log.Debugw("no journals in requested areas", logger.FieldArea, areaList)
			return []entity.Journal{}
		}
	}

	var rows []source.JournalRow
	if len(licenses) == 0 {
		rows = fanOut(ctx, e.BasicQueryEngine, kindJournal, "get_all_journals", snap.journals,
			func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
				return h.GetAllJournals(ctx)
			})
	} else {
		rows = fanOut(ctx, e.BasicQueryEngine, kindJournal, "get_journals_with_license", snap.journals,
			func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
				return h.GetJournalsWithLicense(ctx, licenses)
			})
	}

	groups := groupJournalRows(rows, log)
	if members != nil {
		kept := groups[:0]
		for _, g := range groups {
			if g.hasAnyID(members) {
				kept = append(kept, g)
			}
		}
		groups = kept
	}

	out := e.classifyAll(ctx, snap, groups)
	log.Debugw("compound query complete",
		logger.FieldQuery, "journals_in_areas_with_license",
		logger.FieldCount, len(out),
	)
	return out
}

// GetDiamondJournalsInAreasAndCategoriesWithQuartile returns diamond journals
// (no APC, DOAJ seal) in any of areas that have a category matching both the
// category and quartile filters. Every filter matches everything when empty.
// Each journal appears once.
func (e *FullQueryEngine) GetDiamondJournalsInAreasAndCategoriesWithQuartile(ctx context.Context, areas, categories, quartiles []string) []entity.Journal {
	snap := e.snapshot()
	log := e.log(ctx)
	areaFilter, names, tiers := toSet(areas), toSet(categories), toSet(quartiles)

	rows := fanOut(ctx, e.BasicQueryEngine, kindJournal, "get_all_journals", snap.journals,
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetAllJournals(ctx)
		})

	seen := make(map[string]struct{})
	out := make([]entity.Journal, 0)
	for _, g := range groupJournalRows(rows, log) {
		if g.first.APC || !g.first.Seal {
			continue
		}
		j := e.classify(ctx, snap, g)
		if len(areaFilter) > 0 && !inAnyArea(j, areaFilter) {
			continue
		}
		if (len(names) > 0 || len(tiers) > 0) && !hasMatchingCategory(j, names, tiers) {
			continue
		}
		key := strings.Join(j.IDs(), "\x00")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, j)
	}

	log.Debugw("compound query complete",
		logger.FieldQuery, "diamond_journals",
		logger.FieldCount, len(out),
	)
	return out
}

func hasMatchingCategory(j entity.Journal, names, tiers map[string]struct{}) bool {
	for _, c := range j.Categories() {
		if c.Matches(names, tiers) {
			return true
		}
	}
	return false
}

// inAnyArea matches an area filter against area names and identifiers.
func inAnyArea(j entity.Journal, filter map[string]struct{}) bool {
	for _, a := range j.Areas() {
		if _, ok := filter[a.Name()]; ok {
			return true
		}
		for _, id := range a.IDs() {
			if _, ok := filter[id]; ok {
				return true
			}
		}
	}
	return false
}

func setToSlice(set map[string]struct{}) []string {
	return entity.SortedUnique(keys(set))
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
