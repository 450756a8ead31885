// Package entity defines the reconciled domain objects returned by the query
// engine: journals and the categories and areas that classify them.
//
// Every entity is identified by a set of interchangeable identifiers (ISSN and
// EISSN for the same journal, for example). Two entities that share any
// identifier denote the same real-world object.
package entity

import "sort"

// IdentifiableEntity is implemented by every domain entity.
type IdentifiableEntity interface {
	// IDs returns the identifier set sorted ascending.
	IDs() []string
}

// identifiers is an order-independent identifier set shared by all entities.
type identifiers struct {
	ids []string // sorted, unique
}

func newIdentifiers(ids []string) identifiers {
	return identifiers{ids: SortedUnique(ids)}
}

// IDs returns the identifier set sorted ascending.
func (i identifiers) IDs() []string {
	return append([]string(nil), i.ids...)
}

// HasID reports whether id is one of the entity's identifiers.
func (i identifiers) HasID(id string) bool {
	n := sort.SearchStrings(i.ids, id)
	return n < len(i.ids) && i.ids[n] == id
}

// SharesID reports whether any identifier of other is also one of ours.
func (i identifiers) SharesID(other IdentifiableEntity) bool {
	for _, id := range other.IDs() {
		if i.HasID(id) {
			return true
		}
	}
	return false
}

// SortedUnique returns the non-empty values of in, deduplicated and sorted.
func SortedUnique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
