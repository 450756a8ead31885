package source

import "strings"

// JournalRow is one journal record as returned by a JournalSource.
type JournalRow struct {
	// Identifier is a ";"-joined list of ISSN/EISSN values.
	Identifier string
	Title      string
	// Languages is a ","-joined list of language codes.
	Languages string
	Seal      bool
	License   string
	APC       bool
	// Publisher is nil when the backend does not know the publisher.
	Publisher *string
}

// Identifiers returns the split, trimmed identifier list.
func (r JournalRow) Identifiers() []string {
	return SplitList(r.Identifier, IdentifierSeparator)
}

// LanguageCodes returns the split, trimmed language list.
func (r JournalRow) LanguageCodes() []string {
	return SplitList(r.Languages, LanguageSeparator)
}

// Key renders the row as a comparable string so exact duplicates can be
// dropped. Publisher absence and an empty publisher produce different keys.
func (r JournalRow) Key() string {
	var b strings.Builder
	b.WriteString(r.Identifier)
	b.WriteByte(0)
	b.WriteString(r.Title)
	b.WriteByte(0)
	b.WriteString(r.Languages)
	b.WriteByte(0)
	b.WriteString(r.License)
	b.WriteByte(0)
	writeBool(&b, r.Seal)
	writeBool(&b, r.APC)
	if r.Publisher != nil {
		b.WriteByte('p')
		b.WriteString(*r.Publisher)
	}
	return b.String()
}

// CategoryRow is one classification record as returned by a CategorySource.
//
// Categories and Quartiles are parallel: position i of Quartiles ranks
// position i of Categories. Quartiles may be shorter than Categories.
// Operations with a scalar answer return one-element lists.
type CategoryRow struct {
	Identifier string
	Categories []string
	Quartiles  []string
	Areas      []string
	// CategoryID and AreaID carry backend-native ids when the row
	// describes exactly one category or area.
	CategoryID string
	AreaID     string
}

// Identifiers returns the split, trimmed identifier list.
func (r CategoryRow) Identifiers() []string {
	return SplitList(r.Identifier, IdentifierSeparator)
}

// QuartileAt returns the quartile paired with Categories[i], if any.
// An empty string holds the position of an absent quartile.
func (r CategoryRow) QuartileAt(i int) (string, bool) {
	if i < 0 || i >= len(r.Quartiles) || r.Quartiles[i] == "" {
		return "", false
	}
	return r.Quartiles[i], true
}

// Key renders the row as a comparable string so exact duplicates can be dropped.
func (r CategoryRow) Key() string {
	var b strings.Builder
	b.WriteString(r.Identifier)
	for _, list := range [][]string{r.Categories, r.Quartiles, r.Areas} {
		b.WriteByte(1)
		for _, v := range list {
			b.WriteString(v)
			b.WriteByte(0)
		}
	}
	b.WriteByte(1)
	b.WriteString(r.CategoryID)
	b.WriteByte(0)
	b.WriteString(r.AreaID)
	return b.String()
}

func writeBool(b *strings.Builder, v bool) {
	if v {
		b.WriteByte('1')
	} else {
		b.WriteByte('0')
	}
}
