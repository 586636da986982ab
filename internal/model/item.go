package model

import (
	"strings"
	"unicode"
)

// Compound item names carry a prefix before one of these separators, e.g.
// "A - Apple" or "custom item: Briefcase".
var itemSeparators = []string{" - ", ":"}

// Item is a concept to illustrate.
type Item struct {
	Name string `json:"name"`
	// Hint is the raw search term for the item, if the caller has one
	// (e.g. "apple cartoon"). Empty means the name is the raw term.
	Hint string `json:"hint,omitempty"`
}

// NewItem builds an Item with a trimmed name and hint.
func NewItem(name, hint string) Item {
	return Item{Name: strings.TrimSpace(name), Hint: strings.TrimSpace(hint)}
}

// MainWord returns the significant part of the item name.
func (i Item) MainWord() string {
	return MainWord(i.Name)
}

// SignificantWords returns the lower-cased word tokens of the item name.
func (i Item) SignificantWords() []string {
	return SignificantWords(i.Name)
}

// RawTerm is the search term tried last when every expanded variant fails.
func (i Item) RawTerm() string {
	if i.Hint != "" {
		return i.Hint
	}
	return strings.TrimSpace(i.Name)
}

// MainWord returns the suffix of name after its last compound separator,
// or the whole trimmed name when there is none.
func MainWord(name string) string {
	cut := -1
	for _, sep := range itemSeparators {
		if idx := strings.LastIndex(name, sep); idx >= 0 && idx+len(sep) > cut {
			cut = idx + len(sep)
		}
	}
	if cut < 0 {
		return strings.TrimSpace(name)
	}
	word := strings.TrimSpace(name[cut:])
	if word == "" {
		return strings.TrimSpace(name)
	}
	return word
}

// SignificantWords splits name into distinct lower-cased letter/digit runs,
// in order of first appearance.
func SignificantWords(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		words = append(words, f)
	}
	return words
}
