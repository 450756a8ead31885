package entity

// Area is a research area. It carries no attributes beyond its identity.
type Area struct {
	identifiers
	name string
}

// NewArea builds an Area named name. Extra ids (a backend-native id, for
// example) join the identifier set; with none, the name is the identity.
func NewArea(name string, ids ...string) Area {
	if len(SortedUnique(ids)) == 0 {
		ids = []string{name}
	}
	return Area{identifiers: newIdentifiers(ids), name: name}
}

// Name returns the area name.
func (a Area) Name() string { return a.name }

// AreaView is the serialisable form of an Area.
type AreaView struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"area"`
}

func (a Area) View() AreaView {
	return AreaView{Identifiers: a.IDs(), Name: a.name}
}
