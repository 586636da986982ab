package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		name  string
		tags  string
		words []string
		item  string
		want  bool
	}{
		{
			name:  "main word substring accepts",
			tags:  "red apple fruit illustration",
			words: []string{"a", "apple"},
			item:  "A - Apple",
			want:  true,
		},
		{
			name:  "main word is case insensitive",
			tags:  "Apple, Fruit, Red",
			words: []string{"a", "apple"},
			item:  "A - APPLE",
			want:  true,
		},
		{
			name:  "exact match escapes deny list",
			tags:  "wooden box toy",
			words: []string{"box"},
			item:  "X - Box",
			want:  true,
		},
		{
			name:  "deny listed tag rejects despite score",
			tags:  "briefcase leather bag",
			words: []string{"apple", "bag"},
			item:  "A - Apple",
			want:  false,
		},
		{
			name:  "custom item main word short circuits deny list",
			tags:  "leather briefcase office bag",
			words: []string{"custom", "item", "briefcase"},
			item:  "custom item: Briefcase",
			want:  true,
		},
		{
			name:  "significant word scores",
			tags:  "frozen dessert cream cone",
			words: []string{"i", "ice", "cream"},
			item:  "I - Ice cream",
			want:  true,
		},
		{
			name:  "short words do not score",
			tags:  "a letter on paper",
			words: []string{"a", "on"},
			item:  "A - Ant",
			want:  false,
		},
		{
			name:  "no overlap rejects",
			tags:  "mountain lake sunset",
			words: []string{"z", "zebra"},
			item:  "Z - Zebra",
			want:  false,
		},
		{
			name:  "plural deny keyword rejects",
			tags:  "storage boxes cream paint",
			words: []string{"i", "ice", "cream"},
			item:  "I - Ice cream",
			want:  false,
		},
		{
			name:  "deny keyword inside longer word rejects",
			tags:  "boxer dog puppy",
			words: []string{"d", "dog"},
			item:  "Dogs",
			want:  false,
		},
		{
			name:  "lunchbox contains box",
			tags:  "red apple in a lunchbox",
			words: []string{"red", "fruit"},
			item:  "custom: red fruit",
			want:  false,
		},
		{
			name:  "handbag contains bag",
			tags:  "leather handbag red",
			words: []string{"red", "purse"},
			item:  "custom: red purse",
			want:  false,
		},
		{
			name:  "empty tags reject",
			tags:  "",
			words: []string{"apple"},
			item:  "A - Apple",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsRelevant(tt.tags, tt.words, tt.item)
			assert.Equal(t, tt.want, got)
			// Pure: a second call yields the same answer.
			assert.Equal(t, got, IsRelevant(tt.tags, tt.words, tt.item))
		})
	}
}

func TestDeniedKeyword(t *testing.T) {
	kw, ok := DeniedKeyword("leather briefcase office bag")
	assert.True(t, ok)
	assert.Equal(t, "bag", kw)

	kw, ok = DeniedKeyword("Toolbox, Hammer")
	assert.True(t, ok)
	assert.Equal(t, "box", kw)

	_, ok = DeniedKeyword("red apple fruit")
	assert.False(t, ok)
}

func TestDenyList_ReturnsCopy(t *testing.T) {
	list := DenyList()
	list[0] = "mutated"
	assert.Equal(t, "box", DenyList()[0])
}
