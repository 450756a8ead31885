package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/scholarfed/entity"
)

// JournalTable renders journals, one per row
func JournalTable(w io.Writer, journals []entity.Journal) error {
	data := pterm.TableData{{"Identifiers", "Title", "Languages", "Publisher", "Seal", "APC", "Licence", "Categories", "Areas"}}
	for _, j := range journals {
		publisher := "-"
		if p, ok := j.Publisher(); ok {
			publisher = p
		}
		data = append(data, []string{
			strings.Join(j.IDs(), ", "),
			j.Title(),
			strings.Join(j.Languages(), ", "),
			publisher,
			yesNo(j.HasDOAJSeal()),
			yesNo(j.HasAPC()),
			j.Licence(),
			categoryList(j.Categories()),
			areaList(j.Areas()),
		})
	}
	return render(w, data, len(journals), "journal")
}

// CategoryTable renders categories with their quartile and identifiers
func CategoryTable(w io.Writer, categories []entity.Category) error {
	data := pterm.TableData{{"Category", "Quartile", "Identifiers"}}
	for _, c := range categories {
		q, ok := c.Quartile()
		if !ok {
			q = "-"
		}
		data = append(data, []string{c.Name(), q, strings.Join(c.IDs(), ", ")})
	}
	return render(w, data, len(categories), "category")
}

// AreaTable renders areas with their identifiers
func AreaTable(w io.Writer, areas []entity.Area) error {
	data := pterm.TableData{{"Area", "Identifiers"}}
	for _, a := range areas {
		data = append(data, []string{a.Name(), strings.Join(a.IDs(), ", ")})
	}
	return render(w, data, len(areas), "area")
}

func render(w io.Writer, data pterm.TableData, n int, noun string) error {
	if n == 0 {
		_, err := fmt.Fprintf(w, "No %s found\n", noun)
		return err
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n%d %s\n", out, n, plural(noun, n))
	return err
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(noun, "y") + "ies"
	}
	return noun + "s"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func categoryList(categories []entity.Category) string {
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		parts = append(parts, c.Key())
	}
	return strings.Join(parts, ", ")
}

func areaList(areas []entity.Area) string {
	parts := make([]string, 0, len(areas))
	for _, a := range areas {
		parts = append(parts, a.Name())
	}
	return strings.Join(parts, ", ")
}
