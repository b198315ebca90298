package store

import (
	"sort"
	"strings"

	"github.com/iodt2/twincatalog/vocabulary/twin"
)

// CompletePrefixes prepends PREFIX declarations for every known namespace
// abbreviation the query uses but does not declare. Longer abbreviations
// are checked first so "rdfs:" usage never counts as "rdf:" usage, and an
// abbreviation only counts when it starts at a word boundary. Running the
// result through CompletePrefixes again returns it unchanged.
func CompletePrefixes(query string) string {
	prefixes := twin.PrefixDeclarations()
	sort.SliceStable(prefixes, func(i, j int) bool {
		return len(prefixes[i].Abbrev) > len(prefixes[j].Abbrev)
	})

	upper := strings.ToUpper(query)
	var missing []string
	for _, p := range prefixes {
		decl := "PREFIX " + p.Abbrev + ": <" + p.IRI + ">"
		if usesPrefix(query, p.Abbrev) && !strings.Contains(upper, strings.ToUpper(decl)) {
			missing = append(missing, decl)
		}
	}

	if len(missing) == 0 {
		return query
	}
	return strings.Join(missing, "\n") + "\n\n" + query
}

// usesPrefix reports whether query contains "abbrev:" not preceded by a
// letter, so "rdf:" inside "xrdf:" or "rdfs:" does not count.
func usesPrefix(query, abbrev string) bool {
	token := abbrev + ":"
	for i := 0; ; {
		idx := strings.Index(query[i:], token)
		if idx < 0 {
			return false
		}
		idx += i
		if idx == 0 || !isLetter(query[idx-1]) {
			return true
		}
		i = idx + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// ValidateSelect checks that the first non-PREFIX, non-blank line of the
// query starts with SELECT. Any other query form is rejected before it
// reaches the network.
func ValidateSelect(query string) error {
	for _, line := range strings.Split(strings.TrimSpace(query), "\n") {
		stripped := strings.ToUpper(strings.TrimSpace(line))
		if stripped == "" || strings.HasPrefix(stripped, "PREFIX") {
			continue
		}
		if strings.HasPrefix(stripped, "SELECT") {
			return nil
		}
		return &RejectedQueryError{Reason: "only SELECT queries are allowed"}
	}
	return &RejectedQueryError{Reason: "empty query"}
}
