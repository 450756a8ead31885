package engine

import (
	"context"
	"sync"
	"time"

	"github.com/teranos/scholarfed/source"
)

// fakeJournals answers every journal operation from canned rows.
type fakeJournals struct {
	source.Base
	all   []source.JournalRow            // answer for list operations
	byID  map[string][]source.JournalRow // answer for GetByID
	err   error
	delay time.Duration

	mu       sync.Mutex
	calls    map[string]int
	licenses [][]string
}

func newFakeJournals(location string, all ...source.JournalRow) *fakeJournals {
	f := &fakeJournals{all: all, byID: map[string][]source.JournalRow{}, calls: map[string]int{}}
	f.SetDbPathOrURL(location)
	return f
}

func (f *fakeJournals) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeJournals) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeJournals) answer(op string, rows []source.JournalRow) ([]source.JournalRow, error) {
	f.record(op)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]source.JournalRow(nil), rows...), nil
}

func (f *fakeJournals) filter(op string, keep func(source.JournalRow) bool) ([]source.JournalRow, error) {
	var rows []source.JournalRow
	for _, r := range f.all {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return f.answer(op, rows)
}

func (f *fakeJournals) GetByID(_ context.Context, id string) ([]source.JournalRow, error) {
	return f.answer("get_by_id", f.byID[id])
}

func (f *fakeJournals) GetAllJournals(context.Context) ([]source.JournalRow, error) {
	return f.answer("get_all_journals", f.all)
}

func (f *fakeJournals) GetJournalsWithTitle(_ context.Context, partialTitle string) ([]source.JournalRow, error) {
	return f.answer("get_journals_with_title", f.all)
}

func (f *fakeJournals) GetJournalsPublishedBy(_ context.Context, partialName string) ([]source.JournalRow, error) {
	return f.answer("get_journals_published_by", f.all)
}

func (f *fakeJournals) GetJournalsWithLicense(_ context.Context, licenses []string) ([]source.JournalRow, error) {
	f.mu.Lock()
	f.licenses = append(f.licenses, licenses)
	f.mu.Unlock()
	set := toSet(licenses)
	return f.filter("get_journals_with_license", func(r source.JournalRow) bool {
		_, ok := set[r.License]
		return len(set) == 0 || ok
	})
}

func (f *fakeJournals) GetJournalsWithAPC(context.Context) ([]source.JournalRow, error) {
	return f.filter("get_journals_with_apc", func(r source.JournalRow) bool { return r.APC })
}

func (f *fakeJournals) GetJournalsWithoutAPC(context.Context) ([]source.JournalRow, error) {
	return f.filter("get_journals_without_apc", func(r source.JournalRow) bool { return !r.APC })
}

func (f *fakeJournals) GetJournalsWithDOAJSeal(context.Context) ([]source.JournalRow, error) {
	return f.filter("get_journals_with_doaj_seal", func(r source.JournalRow) bool { return r.Seal })
}

// fakeCategories answers classification operations from canned rows.
type fakeCategories struct {
	source.Base
	byID      map[string][]source.CategoryRow
	lists     []source.CategoryRow            // answer for list operations
	areaIndex map[string][]source.CategoryRow // answer for GetJournalsByArea, keyed by area
	err       error

	mu    sync.Mutex
	calls map[string]int
	ids   []string
}

func newFakeCategories(location string) *fakeCategories {
	f := &fakeCategories{
		byID:      map[string][]source.CategoryRow{},
		areaIndex: map[string][]source.CategoryRow{},
		calls:     map[string]int{},
	}
	f.SetDbPathOrURL(location)
	return f
}

func (f *fakeCategories) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCategories) answer(op string, rows []source.CategoryRow) ([]source.CategoryRow, error) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]source.CategoryRow(nil), rows...), nil
}

func (f *fakeCategories) GetByID(_ context.Context, id string) ([]source.CategoryRow, error) {
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	return f.answer("get_by_id", f.byID[id])
}

func (f *fakeCategories) GetAllCategories(context.Context) ([]source.CategoryRow, error) {
	return f.answer("get_all_categories", f.lists)
}

func (f *fakeCategories) GetAllAreas(context.Context) ([]source.CategoryRow, error) {
	return f.answer("get_all_areas", f.lists)
}

func (f *fakeCategories) GetCategoriesWithQuartile(_ context.Context, quartiles []string) ([]source.CategoryRow, error) {
	return f.answer("get_categories_with_quartile", f.lists)
}

func (f *fakeCategories) GetCategoriesAssignedToAreas(_ context.Context, areas []string) ([]source.CategoryRow, error) {
	return f.answer("get_categories_assigned_to_areas", f.lists)
}

func (f *fakeCategories) GetAreasAssignedToCategories(_ context.Context, categories []string) ([]source.CategoryRow, error) {
	return f.answer("get_areas_assigned_to_categories", f.lists)
}

func (f *fakeCategories) GetJournalsByArea(_ context.Context, areas []string) ([]source.CategoryRow, error) {
	var rows []source.CategoryRow
	for _, a := range areas {
		rows = append(rows, f.areaIndex[a]...)
	}
	return f.answer("get_journals_by_area", rows)
}

// classify registers the classification of every identifier in ids.
func (f *fakeCategories) classify(ids []string, categories, quartiles, areas []string) {
	for _, id := range ids {
		f.byID[id] = append(f.byID[id], source.CategoryRow{
			Identifier: source.JoinIdentifiers(ids),
			Categories: categories,
			Quartiles:  quartiles,
			Areas:      areas,
		})
	}
	for _, a := range areas {
		f.areaIndex[a] = append(f.areaIndex[a], source.CategoryRow{Identifier: source.JoinIdentifiers(ids)})
	}
}

var (
	_ source.JournalSource  = (*fakeJournals)(nil)
	_ source.CategorySource = (*fakeCategories)(nil)
)
