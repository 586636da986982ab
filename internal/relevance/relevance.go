// Package relevance decides from an image's provider tags whether it can
// depict an item.
package relevance

import (
	"strings"

	"github.com/kinderslides/kinderslides/internal/model"
)

// minWordLen is the shortest significant word that counts toward the score.
const minWordLen = 3

// denyList holds furniture and container words that signal a categorically
// wrong match when the item is something else.
var denyList = []string{
	"box",
	"bag",
	"briefcase",
	"suitcase",
	"chair",
	"table",
	"desk",
	"furniture",
	"container",
	"package",
	"crate",
	"cabinet",
	"shelf",
	"drawer",
	"basket",
	"carton",
}

// DenyList returns a copy of the deny-listed keywords.
func DenyList() []string {
	out := make([]string, len(denyList))
	copy(out, denyList)
	return out
}

// IsRelevant reports whether an image with the given tags is admissible for
// itemName. A tag match on the item's main word is accepted outright.
// Otherwise at least one significant word must match and no deny-listed
// keyword other than the main word itself may appear in the tags.
func IsRelevant(tags string, significantWords []string, itemName string) bool {
	lowerTags := strings.ToLower(tags)
	mainWord := strings.ToLower(model.MainWord(itemName))

	if mainWord != "" && strings.Contains(lowerTags, mainWord) {
		return true
	}

	score := 0
	for _, w := range significantWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) < minWordLen {
			continue
		}
		if strings.Contains(lowerTags, w) {
			score++
		}
	}

	if kw, ok := DeniedKeyword(lowerTags); ok && kw != mainWord {
		return false
	}

	return score >= 1
}

// DeniedKeyword returns the first deny-listed keyword contained in tags,
// matched case-insensitively anywhere in the text.
func DeniedKeyword(tags string) (string, bool) {
	lowerTags := strings.ToLower(tags)
	for _, kw := range denyList {
		if strings.Contains(lowerTags, kw) {
			return kw, true
		}
	}
	return "", false
}
