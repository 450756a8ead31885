package graphstore

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary shared by the loader and the query builder.
const (
	rdfType       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdBoolean    = "http://www.w3.org/2001/XMLSchema#boolean"
	schemaJournal = "https://schema.org/Periodical"
	propTitle     = "https://schema.org/name"
	propID        = "https://schema.org/identifier"
	propLanguage  = "https://schema.org/inLanguage"
	propPublisher = "https://schema.org/publisher"
	propLicense   = "https://schema.org/license"
	propSeal      = "https://www.wikidata.org/wiki/Q73548471" // DOAJ Seal
	propAPC       = "https://www.wikidata.org/wiki/Q15291071" // article processing charge
)

const prefixes = `PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX schema: <https://schema.org/>
PREFIX wiki: <https://www.wikidata.org/wiki/>
`

const baseQuery = `SELECT ?journal ?title ?identifier (GROUP_CONCAT(DISTINCT ?lang; SEPARATOR=", ") AS ?languages) ?publisher ?seal ?license ?apc
WHERE {
  ?journal rdf:type schema:Periodical ;
           schema:name ?title ;
           schema:identifier ?identifier ;
           schema:inLanguage ?lang ;
           wiki:Q73548471 ?seal ;
           schema:license ?license ;
           wiki:Q15291071 ?apc .
  OPTIONAL { ?journal schema:publisher ?publisher . }
  %s
}
GROUP BY ?journal ?title ?identifier ?publisher ?seal ?license ?apc
ORDER BY ?identifier
`

// buildQuery renders the journal SELECT with an optional FILTER clause.
func buildQuery(filter string) string {
	return prefixes + fmt.Sprintf(baseQuery, filter)
}

// literal renders s as a quoted SPARQL string literal.
func literal(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// identifierFilter matches id as the whole identifier list or as its first or
// second element.
func identifierFilter(id string) string {
	return fmt.Sprintf(`FILTER(STR(?identifier) = %s || STRSTARTS(STR(?identifier), %s) || STRENDS(STR(?identifier), %s))`,
		literal(id), literal(id+"; "), literal("; "+id))
}

func containsFilter(variable, partial string) string {
	return fmt.Sprintf(`FILTER(CONTAINS(LCASE(STR(?%s)), LCASE(%s)))`, variable, literal(partial))
}

func booleanFilter(variable string, value bool) string {
	return fmt.Sprintf(`FILTER(LCASE(STR(?%s)) = "%t")`, variable, value)
}

// licenseFilter matches any of licenses inside the comma-joined license list.
// Codes are trimmed and upper-cased; it returns "" when none remain.
func licenseFilter(licenses []string) string {
	seen := make(map[string]struct{}, len(licenses))
	codes := make([]string, 0, len(licenses))
	for _, l := range licenses {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		codes = append(codes, l)
	}
	if len(codes) == 0 {
		return ""
	}
	sort.Strings(codes)

	alternatives := make([]string, 0, len(codes))
	for _, code := range codes {
		alternatives = append(alternatives, fmt.Sprintf(
			`(STR(?license) = %s || STRSTARTS(STR(?license), %s) || CONTAINS(STR(?license), %s) || STRENDS(STR(?license), %s))`,
			literal(code), literal(code+", "), literal(", "+code+", "), literal(", "+code)))
	}
	return "FILTER(" + strings.Join(alternatives, " || ") + ")"
}
