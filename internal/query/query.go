// Package query expands an item into the ordered search queries tried
// against the image provider.
package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kinderslides/kinderslides/internal/model"
)

// variantSuffixes are appended to the base word, highest recall first.
// The empty suffix is the bare base word.
var variantSuffixes = []string{
	" illustration",
	" cartoon children",
	" clip art",
	" icon",
	"",
}

// Expand returns the search queries for item in priority order. The raw
// term (the item's hint, or its name) is always the last entry.
func Expand(item model.Item) []string {
	raw := item.RawTerm()
	base := Fold(strings.ToLower(item.MainWord()))

	queries := make([]string, 0, len(variantSuffixes)+1)
	seen := map[string]bool{strings.ToLower(raw): true}
	if base != "" {
		for _, suffix := range variantSuffixes {
			q := base + suffix
			key := strings.ToLower(q)
			if seen[key] {
				continue
			}
			seen[key] = true
			queries = append(queries, q)
		}
	}
	if raw != "" || len(queries) == 0 {
		queries = append(queries, raw)
	}
	return queries
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips combining marks so "crème" searches as "creme".
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}
