// Package source defines the contracts that storage adapters implement so the
// query engine can reach them, and the typed rows those adapters return.
//
// An adapter answers for one backend and one entity kind. Journal data and
// classification data live in independently managed stores, joined only by
// shared journal identifiers (ISSN/EISSN).
package source

import (
	"context"
	"strings"
)

// Separators used inside row fields.
const (
	IdentifierSeparator = ";"
	LanguageSeparator   = ","
)

// Locator exposes where an adapter's backend lives: a file path for embedded
// databases or a URL for remote endpoints.
type Locator interface {
	DbPathOrURL() string
	// SetDbPathOrURL points the adapter at a new backend. It returns false
	// when the value cannot be used.
	SetDbPathOrURL(pathOrURL string) bool
}

// JournalSource answers journal queries for one backend.
// Operations return an empty slice, not an error, when nothing matches.
type JournalSource interface {
	Locator
	GetByID(ctx context.Context, id string) ([]JournalRow, error)
	GetAllJournals(ctx context.Context) ([]JournalRow, error)
	GetJournalsWithTitle(ctx context.Context, partialTitle string) ([]JournalRow, error)
	GetJournalsPublishedBy(ctx context.Context, partialName string) ([]JournalRow, error)
	// GetJournalsWithLicense returns every journal when licenses is empty.
	GetJournalsWithLicense(ctx context.Context, licenses []string) ([]JournalRow, error)
	GetJournalsWithAPC(ctx context.Context) ([]JournalRow, error)
	GetJournalsWithoutAPC(ctx context.Context) ([]JournalRow, error)
	GetJournalsWithDOAJSeal(ctx context.Context) ([]JournalRow, error)
}

// CategorySource answers classification queries for one backend.
// Set-valued filters treat an empty slice as "no restriction".
type CategorySource interface {
	Locator
	// GetByID resolves a journal identifier, a native category id or a
	// native area id.
	GetByID(ctx context.Context, id string) ([]CategoryRow, error)
	GetAllCategories(ctx context.Context) ([]CategoryRow, error)
	GetAllAreas(ctx context.Context) ([]CategoryRow, error)
	GetCategoriesWithQuartile(ctx context.Context, quartiles []string) ([]CategoryRow, error)
	GetCategoriesAssignedToAreas(ctx context.Context, areas []string) ([]CategoryRow, error)
	GetAreasAssignedToCategories(ctx context.Context, categories []string) ([]CategoryRow, error)
	// GetJournalsByArea returns rows carrying only Identifier.
	GetJournalsByArea(ctx context.Context, areas []string) ([]CategoryRow, error)
}

// Uploader bulk-loads a source file into a backend.
type Uploader interface {
	Locator
	PushDataToDB(ctx context.Context, path string) error
}

// Base holds the backend location for adapters. Embed it to satisfy Locator.
type Base struct {
	pathOrURL string
}

// DbPathOrURL returns the configured backend location.
func (b *Base) DbPathOrURL() string { return b.pathOrURL }

// SetDbPathOrURL records a new location; blank values are refused.
func (b *Base) SetDbPathOrURL(pathOrURL string) bool {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return false
	}
	b.pathOrURL = pathOrURL
	return true
}

// SplitList splits s on sep, trimming whitespace and dropping empty items.
func SplitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinIdentifiers renders identifiers the way adapters emit them.
func JoinIdentifiers(ids []string) string {
	return strings.Join(ids, IdentifierSeparator+" ")
}
