package engine

import (
	"reflect"

	"github.com/teranos/scholarfed/source"
)

// snapshot is the registry state a single query runs against.
type snapshot struct {
	journals   []source.JournalSource
	categories []source.CategorySource
}

// AddJournalHandler appends h to the journal registry.
// Returns false, leaving the registry unchanged, when h is nil.
func (e *BasicQueryEngine) AddJournalHandler(h source.JournalSource) bool {
	if isNil(h) {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.journals = append(e.journals, h)
	return true
}

// AddCategoryHandler appends h to the category registry.
// Returns false, leaving the registry unchanged, when h is nil.
func (e *BasicQueryEngine) AddCategoryHandler(h source.CategorySource) bool {
	if isNil(h) {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.categories = append(e.categories, h)
	return true
}

// CleanJournalHandlers empties the journal registry.
func (e *BasicQueryEngine) CleanJournalHandlers() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.journals = nil
	return true
}

// CleanCategoryHandlers empties the category registry.
func (e *BasicQueryEngine) CleanCategoryHandlers() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.categories = nil
	return true
}

func (e *BasicQueryEngine) JournalHandlerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.journals)
}

func (e *BasicQueryEngine) CategoryHandlerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.categories)
}

// snapshot copies both registries under the read lock. Every fan-out of a
// query uses the same snapshot, so concurrent registration never changes a
// query halfway through.
func (e *BasicQueryEngine) snapshot() snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return snapshot{
		journals:   append([]source.JournalSource(nil), e.journals...),
		categories: append([]source.CategorySource(nil), e.categories...),
	}
}

// isNil catches both a nil interface and an interface holding a nil pointer.
func isNil(h any) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
