package entity

// Journal is an academic journal reconciled from one or more backend rows.
// A Journal is never mutated after construction; accessors return copies.
type Journal struct {
	identifiers
	title        string
	languages    []string
	publisher    string
	hasPublisher bool
	seal         bool
	licence      string
	apc          bool
	categories   []Category
	areas        []Area
}

// JournalAttributes carries the scalar and multi-valued fields of a journal.
// Publisher nil means the publisher is unknown.
type JournalAttributes struct {
	Identifiers []string
	Title       string
	Languages   []string
	Publisher   *string
	Seal        bool
	Licence     string
	APC         bool
	Categories  []Category
	Areas       []Area
}

// NewJournal builds a Journal from attrs.
func NewJournal(attrs JournalAttributes) Journal {
	j := Journal{
		identifiers: newIdentifiers(attrs.Identifiers),
		title:       attrs.Title,
		languages:   SortedUnique(attrs.Languages),
		seal:        attrs.Seal,
		licence:     attrs.Licence,
		apc:         attrs.APC,
		categories:  append([]Category(nil), attrs.Categories...),
		areas:       append([]Area(nil), attrs.Areas...),
	}
	if attrs.Publisher != nil {
		j.publisher = *attrs.Publisher
		j.hasPublisher = true
	}
	return j
}

func (j Journal) Title() string { return j.title }

// Languages returns the language codes sorted ascending.
func (j Journal) Languages() []string { return append([]string(nil), j.languages...) }

// Publisher returns the publisher name and whether it is known.
func (j Journal) Publisher() (string, bool) { return j.publisher, j.hasPublisher }

// HasDOAJSeal reports whether the journal meets DOAJ's elevated quality criteria.
func (j Journal) HasDOAJSeal() bool { return j.seal }

// Licence may hold several comma-joined license codes.
func (j Journal) Licence() string { return j.licence }

// HasAPC reports whether the journal charges an article-processing fee.
func (j Journal) HasAPC() bool { return j.apc }

// IsDiamond reports whether the journal charges no fee and holds the seal.
func (j Journal) IsDiamond() bool { return !j.apc && j.seal }

func (j Journal) Categories() []Category { return append([]Category(nil), j.categories...) }

func (j Journal) Areas() []Area { return append([]Area(nil), j.areas...) }

// WithClassification returns a copy of j carrying the given categories and areas.
func (j Journal) WithClassification(categories []Category, areas []Area) Journal {
	j.categories = append([]Category(nil), categories...)
	j.areas = append([]Area(nil), areas...)
	return j
}

// JournalView is the serialisable form of a Journal used by the CLI.
type JournalView struct {
	Identifiers []string       `json:"identifiers"`
	Title       string         `json:"title"`
	Languages   []string       `json:"languages"`
	Publisher   *string        `json:"publisher"`
	Seal        bool           `json:"doaj_seal"`
	Licence     string         `json:"licence"`
	APC         bool           `json:"apc"`
	Categories  []CategoryView `json:"categories"`
	Areas       []string       `json:"areas"`
}

// View flattens the journal into a serialisable struct.
func (j Journal) View() JournalView {
	v := JournalView{
		Identifiers: j.IDs(),
		Title:       j.title,
		Languages:   j.Languages(),
		Seal:        j.seal,
		Licence:     j.licence,
		APC:         j.apc,
		Categories:  make([]CategoryView, 0, len(j.categories)),
		Areas:       make([]string, 0, len(j.areas)),
	}
	if j.hasPublisher {
		p := j.publisher
		v.Publisher = &p
	}
	for _, c := range j.categories {
		v.Categories = append(v.Categories, c.View())
	}
	for _, a := range j.areas {
		v.Areas = append(v.Areas, a.Name())
	}
	return v
}
