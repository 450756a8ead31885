package engine

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/scholarfed/entity"
	"github.com/teranos/scholarfed/internal/util"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/source"
)

// journalGroup is the set of rows that describe one real-world journal.
type journalGroup struct {
	first     source.JournalRow // supplies the scalar fields
	ids       []string
	languages []string
}

// dropDuplicateJournalRows keeps the first occurrence of each exact row.
func dropDuplicateJournalRows(rows []source.JournalRow) []source.JournalRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]source.JournalRow, 0, len(rows))
	for _, r := range rows {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// groupJournalRows merges rows that share any identifier, directly or through
// a chain of other rows. Groups are returned in the order of their first row.
func groupJournalRows(rows []source.JournalRow, log *zap.SugaredLogger) []journalGroup {
	rows = dropDuplicateJournalRows(rows)

	parent := make([]int, len(rows))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// the lower index stays root so the first row keeps its place
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	valid := make([]bool, len(rows))
	owner := make(map[string]int)
	for i, r := range rows {
		ids := r.Identifiers()
		if len(ids) == 0 {
			RowsSkippedTotal.WithLabelValues(kindJournal, "no_identifier").Inc()
			log.Debugw("skipping journal row without identifiers", "title", r.Title)
			continue
		}
		valid[i] = true
		for _, id := range ids {
			if j, ok := owner[id]; ok {
				union(i, j)
			} else {
				owner[id] = i
			}
		}
	}

	index := make(map[int]int)
	var groups []journalGroup
	for i, r := range rows {
		if !valid[i] {
			continue
		}
		root := find(i)
		gi, ok := index[root]
		if !ok {
			gi = len(groups)
			index[root] = gi
			groups = append(groups, journalGroup{first: r})
		}
		groups[gi].ids = append(groups[gi].ids, r.Identifiers()...)
		groups[gi].languages = append(groups[gi].languages, r.LanguageCodes()...)
	}
	for i := range groups {
		groups[i].ids = entity.SortedUnique(groups[i].ids)
		groups[i].languages = entity.SortedUnique(groups[i].languages)
	}
	return groups
}

// journal builds the unclassified Journal for a group.
func (g journalGroup) journal() entity.Journal {
	return entity.NewJournal(entity.JournalAttributes{
		Identifiers: g.ids,
		Title:       strings.TrimSpace(g.first.Title),
		Languages:   g.languages,
		Publisher:   g.first.Publisher,
		Seal:        g.first.Seal,
		Licence:     strings.TrimSpace(g.first.License),
		APC:         g.first.APC,
	})
}

func (g journalGroup) hasAnyID(set map[string]struct{}) bool {
	for _, id := range g.ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// dropDuplicateCategoryRows keeps the first occurrence of each exact row.
func dropDuplicateCategoryRows(rows []source.CategoryRow) []source.CategoryRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]source.CategoryRow, 0, len(rows))
	for _, r := range rows {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// categoryAt builds the Category at position i of the row's parallel lists.
// ok is false when the name at i is blank.
func categoryAt(r source.CategoryRow, i int) (entity.Category, bool) {
	name := strings.TrimSpace(r.Categories[i])
	if name == "" {
		return entity.Category{}, false
	}
	var quartile *string
	if q, ok := r.QuartileAt(i); ok {
		quartile = util.Ptr(strings.TrimSpace(q))
	}
	var ids []string
	if len(r.Categories) == 1 && r.CategoryID != "" {
		ids = []string{r.CategoryID}
	}
	return entity.NewCategory(ids, name, quartile), true
}

// explodeCategories turns the parallel category/quartile lists of every row
// into Category values, one per distinct (name, quartile) pair, in
// first-seen order.
func explodeCategories(rows []source.CategoryRow, log *zap.SugaredLogger) []entity.Category {
	seen := make(map[string]struct{})
	out := make([]entity.Category, 0)
	for _, r := range rows {
		for i := range r.Categories {
			c, ok := categoryAt(r, i)
			if !ok {
				RowsSkippedTotal.WithLabelValues(kindCategory, "blank_category").Inc()
				log.Debugw("skipping blank category", logger.FieldIdentifier, r.Identifier)
				continue
			}
			if _, dup := seen[c.Key()]; dup {
				continue
			}
			seen[c.Key()] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// areaAt builds the Area at position i of the row's area list.
func areaAt(r source.CategoryRow, i int, nativeIDs bool) (entity.Area, bool) {
	name := strings.TrimSpace(r.Areas[i])
	if name == "" {
		return entity.Area{}, false
	}
	if nativeIDs && len(r.Areas) == 1 && r.AreaID != "" {
		return entity.NewArea(name, r.AreaID), true
	}
	return entity.NewArea(name), true
}

// flattenAreas collects unique, trimmed, non-empty area names across rows in
// first-seen order. With nativeIDs set, a backend-native id on a single-area
// row becomes the area's identifier.
func flattenAreas(rows []source.CategoryRow, nativeIDs bool) []entity.Area {
	seen := make(map[string]struct{})
	out := make([]entity.Area, 0)
	for _, r := range rows {
		for i := range r.Areas {
			a, ok := areaAt(r, i, nativeIDs)
			if !ok {
				continue
			}
			if _, dup := seen[a.Name()]; dup {
				continue
			}
			seen[a.Name()] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// toSet builds a membership set from values, trimming blanks away.
func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
