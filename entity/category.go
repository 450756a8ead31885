package entity

// Category is a subject category, optionally ranked with a quartile.
// The same category name appears as distinct Category values, one per quartile.
type Category struct {
	identifiers
	name        string
	quartile    string
	hasQuartile bool
}

// NewCategory builds a Category. quartile nil means no quartile was assigned.
// When ids is empty the synthetic identity from CategoryKey is used.
func NewCategory(ids []string, name string, quartile *string) Category {
	c := Category{name: name}
	if quartile != nil {
		c.quartile = *quartile
		c.hasQuartile = true
	}
	if len(SortedUnique(ids)) == 0 {
		ids = []string{c.Key()}
	}
	c.identifiers = newIdentifiers(ids)
	return c
}

func (c Category) Name() string { return c.name }

// Quartile returns the ranking tier and whether one is assigned.
func (c Category) Quartile() (string, bool) { return c.quartile, c.hasQuartile }

// Key is the (name, quartile) identity: "name:quartile", or the bare name
// when the quartile is absent.
func (c Category) Key() string {
	return CategoryKey(c.name, c.quartile, c.hasQuartile)
}

// CategoryKey formats the (name, quartile) identity of a category.
func CategoryKey(name, quartile string, hasQuartile bool) string {
	if !hasQuartile {
		return name
	}
	return name + ":" + quartile
}

// Matches reports whether the category satisfies both filters.
// An empty filter matches everything; an absent quartile never matches a
// non-empty quartile filter.
func (c Category) Matches(names, quartiles map[string]struct{}) bool {
	if len(names) > 0 {
		if _, ok := names[c.name]; !ok {
			return false
		}
	}
	if len(quartiles) > 0 {
		if !c.hasQuartile {
			return false
		}
		if _, ok := quartiles[c.quartile]; !ok {
			return false
		}
	}
	return true
}

// CategoryView is the serialisable form of a Category.
type CategoryView struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"category"`
	Quartile    *string  `json:"quartile"`
}

func (c Category) View() CategoryView {
	v := CategoryView{Identifiers: c.IDs(), Name: c.name}
	if c.hasQuartile {
		q := c.quartile
		v.Quartile = &q
	}
	return v
}
