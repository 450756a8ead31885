// Package engine federates queries across every registered journal and
// category handler and reconciles the overlapping rows they return into
// deduplicated Journal, Category and Area values.
//
// Every read follows the same shape: fan out the named operation to all
// handlers of one kind, merge the rows in registration order, drop exact
// duplicates, then group rows by identity. Journals additionally go through a
// second fan-out that asks every category handler for the classification of
// each of the journal's identifiers.
//
// Read operations never return errors. A failing handler is logged and
// treated as having found nothing.
package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/scholarfed/entity"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/source"
)

// BasicQueryEngine owns two handler registries and answers single-criterion
// queries over them. Safe for concurrent use.
type BasicQueryEngine struct {
	mu         sync.RWMutex
	journals   []source.JournalSource
	categories []source.CategorySource

	cfg    Config
	logger *zap.SugaredLogger
}

// NewBasicQueryEngine creates an engine with empty registries.
// A nil logger falls back to the global logger.
func NewBasicQueryEngine(cfg Config, log *zap.SugaredLogger) *BasicQueryEngine {
	if log == nil {
		log = logger.Logger
	}
	return &BasicQueryEngine{
		cfg:    cfg,
		logger: log.Named("engine"),
	}
}

// GetCategoryByID returns the categories linked to any of the ";"-joined
// identifiers in id, one per distinct (name, quartile) pair.
func (e *BasicQueryEngine) GetCategoryByID(ctx context.Context, id string) []entity.Category {
	rows := e.classificationRows(ctx, e.snapshot(), source.SplitList(id, source.IdentifierSeparator))
	return explodeCategories(rows, e.log(ctx))
}

// GetAreaByID returns the areas linked to any of the ";"-joined identifiers
// in id, one per distinct area name.
func (e *BasicQueryEngine) GetAreaByID(ctx context.Context, id string) []entity.Area {
	rows := e.classificationRows(ctx, e.snapshot(), source.SplitList(id, source.IdentifierSeparator))
	return flattenAreas(rows, false)
}

// GetEntityByID resolves id to a journal if any journal handler knows it,
// otherwise to the category and area of the first classification record.
// The second result is false when neither registry knows the id.
func (e *BasicQueryEngine) GetEntityByID(ctx context.Context, id string) (EntityResult, bool) {
	snap := e.snapshot()
	log := e.log(ctx)

	rows := fanOut(ctx, e, kindJournal, "get_by_id", snap.journals,
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetByID(ctx, id)
		})
	if groups := groupJournalRows(rows, log); len(groups) > 0 {
		j := e.classify(ctx, snap, groups[0])
		return EntityResult{Journal: &j}, true
	}

	crows := fanOut(ctx, e, kindCategory, "get_by_id", snap.categories,
		func(ctx context.Context, h source.CategorySource) ([]source.CategoryRow, error) {
			return h.GetByID(ctx, id)
		})
	for _, r := range dropDuplicateCategoryRows(crows) {
		var result EntityResult
		if len(r.Categories) > 0 {
			if c, ok := categoryAt(r, 0); ok {
				result.Category = &c
			}
		}
		if len(r.Areas) > 0 {
			if a, ok := areaAt(r, 0, true); ok {
				result.Area = &a
			}
		}
		if result.Category != nil || result.Area != nil {
			return result, true
		}
		RowsSkippedTotal.WithLabelValues(kindCategory, "empty_record").Inc()
		log.Debugw("skipping classification record with no category or area", logger.FieldIdentifier, id)
	}

	log.Debugw("entity not found", logger.FieldIdentifier, id)
	return EntityResult{}, false
}

func (e *BasicQueryEngine) GetAllJournals(ctx context.Context) []entity.Journal {
	return e.journalQuery(ctx, "get_all_journals",
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetAllJournals(ctx)
		})
}

// GetJournalsWithTitle matches partialTitle as a case-insensitive substring.
func (e *BasicQueryEngine) GetJournalsWithTitle(ctx context.Context, partialTitle string) []entity.Journal {
	return e.journalQuery(ctx, "get_journals_with_title",
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetJournalsWithTitle(ctx, partialTitle)
		})
}

// GetJournalsPublishedBy matches partialName against the publisher name.
// An empty partialName matches nothing.
func (e *BasicQueryEngine) GetJournalsPublishedBy(ctx context.Context, partialName string) []entity.Journal {
	if partialName == "" {
		return []entity.Journal{}
	}
	return e.journalQuery(ctx, "get_journals_published_by",
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetJournalsPublishedBy(ctx, partialName)
		})
}

// GetJournalsWithLicense returns journals carrying any of licenses; every
// journal when licenses is empty.
func (e *BasicQueryEngine) GetJournalsWithLicense(ctx context.Context, licenses []string) []entity.Journal {
	return e.journalQuery(ctx, "get_journals_with_license",
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetJournalsWithLicense(ctx, licenses)
		})
}

func (e *BasicQueryEngine) GetJournalsWithAPC(ctx context.Context) []entity.Journal {
	return e.journalQuery(ctx, "get_journals_with_apc",
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetJournalsWithAPC(ctx)
		})
}

func (e *BasicQueryEngine) GetJournalsWithoutAPC(ctx context.Context) []entity.Journal {
	return e.journalQuery(ctx, "get_journals_without_apc",
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetJournalsWithoutAPC(ctx)
		})
}

func (e *BasicQueryEngine) GetJournalsWithDOAJSeal(ctx context.Context) []entity.Journal {
	return e.journalQuery(ctx, "get_journals_with_doaj_seal",
		func(ctx context.Context, h source.JournalSource) ([]source.JournalRow, error) {
			return h.GetJournalsWithDOAJSeal(ctx)
		})
}

func (e *BasicQueryEngine) GetAllCategories(ctx context.Context) []entity.Category {
	return e.categoryQuery(ctx, "get_all_categories",
		func(ctx context.Context, h source.CategorySource) ([]source.CategoryRow, error) {
			return h.GetAllCategories(ctx)
		})
}

func (e *BasicQueryEngine) GetAllAreas(ctx context.Context) []entity.Area {
	return e.areaQuery(ctx, "get_all_areas",
		func(ctx context.Context, h source.CategorySource) ([]source.CategoryRow, error) {
			return h.GetAllAreas(ctx)
		})
}

// GetCategoriesWithQuartile returns categories ranked in any of quartiles;
// every ranked category when quartiles is empty.
func (e *BasicQueryEngine) GetCategoriesWithQuartile(ctx context.Context, quartiles []string) []entity.Category {
	return e.categoryQuery(ctx, "get_categories_with_quartile",
		func(ctx context.Context, h source.CategorySource) ([]source.CategoryRow, error) {
			return h.GetCategoriesWithQuartile(ctx, quartiles)
		})
}

// GetCategoriesAssignedToAreas returns categories that share a journal with
// any of areas.
func (e *BasicQueryEngine) GetCategoriesAssignedToAreas(ctx context.Context, areas []string) []entity.Category {
	return e.categoryQuery(ctx, "get_categories_assigned_to_areas",
		func(ctx context.Context, h source.CategorySource) ([]source.CategoryRow, error) {
			return h.GetCategoriesAssignedToAreas(ctx, areas)
		})
}

// GetAreasAssignedToCategories returns areas that share a journal with any
// of categories.
func (e *BasicQueryEngine) GetAreasAssignedToCategories(ctx context.Context, categories []string) []entity.Area {
	return e.areaQuery(ctx, "get_areas_assigned_to_categories",
		func(ctx context.Context, h source.CategorySource) ([]source.CategoryRow, error) {
			return h.GetAreasAssignedToCategories(ctx, categories)
		})
}

// journalQuery runs a journal fan-out and reconstructs fully classified journals.
func (e *BasicQueryEngine) journalQuery(ctx context.Context, operation string, fn func(context.Context, source.JournalSource) ([]source.JournalRow, error)) []entity.Journal {
	snap := e.snapshot()
	rows := fanOut(ctx, e, kindJournal, operation, snap.journals, fn)
	journals := e.classifyAll(ctx, snap, groupJournalRows(rows, e.log(ctx)))
	e.log(ctx).Debugw("query complete",
		logger.FieldQuery, operation,
		logger.FieldRows, len(rows),
		logger.FieldCount, len(journals),
	)
	return journals
}

func (e *BasicQueryEngine) categoryQuery(ctx context.Context, operation string, fn func(context.Context, source.CategorySource) ([]source.CategoryRow, error)) []entity.Category {
	rows := fanOut(ctx, e, kindCategory, operation, e.snapshot().categories, fn)
	return explodeCategories(dropDuplicateCategoryRows(rows), e.log(ctx))
}

func (e *BasicQueryEngine) areaQuery(ctx context.Context, operation string, fn func(context.Context, source.CategorySource) ([]source.CategoryRow, error)) []entity.Area {
	rows := fanOut(ctx, e, kindCategory, operation, e.snapshot().categories, fn)
	return flattenAreas(dropDuplicateCategoryRows(rows), true)
}

// classificationRows asks every category handler about every identifier.
// A handler that fails for any identifier contributes nothing.
func (e *BasicQueryEngine) classificationRows(ctx context.Context, snap snapshot, ids []string) []source.CategoryRow {
	if len(ids) == 0 {
		return nil
	}
	rows := fanOut(ctx, e, kindCategory, "get_by_id", snap.categories,
		func(ctx context.Context, h source.CategorySource) ([]source.CategoryRow, error) {
			var out []source.CategoryRow
			for _, id := range ids {
				r, err := h.GetByID(ctx, id)
				if err != nil {
					return nil, err
				}
				out = append(out, r...)
			}
			return out, nil
		})
	return dropDuplicateCategoryRows(rows)
}

// classify runs the second fan-out for one journal group.
func (e *BasicQueryEngine) classify(ctx context.Context, snap snapshot, g journalGroup) entity.Journal {
	rows := e.classificationRows(ctx, snap, g.ids)
	return g.journal().WithClassification(explodeCategories(rows, e.log(ctx)), flattenAreas(rows, false))
}

func (e *BasicQueryEngine) classifyAll(ctx context.Context, snap snapshot, groups []journalGroup) []entity.Journal {
	out := make([]entity.Journal, 0, len(groups))
	for _, g := range groups {
		out = append(out, e.classify(ctx, snap, g))
	}
	return out
}

func (e *BasicQueryEngine) log(ctx context.Context) *zap.SugaredLogger {
	return logger.FromContext(ctx, e.logger)
}
