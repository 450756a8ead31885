package engine

import "github.com/teranos/scholarfed/entity"

// EntityResult is the answer to GetEntityByID: either a Journal, or the
// Category and Area described by a bare classification record.
type EntityResult struct {
	Journal  *entity.Journal
	Category *entity.Category
	Area     *entity.Area
}

// IsJournal reports whether the identifier resolved to a journal.
func (r EntityResult) IsJournal() bool { return r.Journal != nil }
