// Package topics holds the catalog of slide topics and their items.
package topics

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/model"
)

// Topic is a named, ordered list of items.
type Topic struct {
	Name  string       `json:"name"`
	Items []model.Item `json:"items"`
}

// Catalog is an ordered set of topics looked up case-insensitively.
type Catalog struct {
	topics []Topic
	index  map[string]int
}

// NewCatalog builds a catalog. Topic names must be non-empty and unique
// ignoring case, and every topic needs at least one item.
func NewCatalog(topics ...Topic) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(topics))}
	for _, t := range topics {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, eris.New("topics: empty topic name")
		}
		key := strings.ToLower(t.Name)
		if _, dup := c.index[key]; dup {
			return nil, eris.Errorf("topics: duplicate topic %q", t.Name)
		}
		if len(t.Items) == 0 {
			return nil, eris.Errorf("topics: topic %q has no items", t.Name)
		}
		c.index[key] = len(c.topics)
		c.topics = append(c.topics, t)
	}
	return c, nil
}

// Names returns the topic names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.topics))
	for i, t := range c.topics {
		names[i] = t.Name
	}
	return names
}

// Topics returns a copy of the topics in catalog order.
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// Get looks up a topic by name, ignoring case and surrounding space.
func (c *Catalog) Get(name string) (Topic, bool) {
	i, ok := c.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Topic{}, false
	}
	return c.topics[i], true
}

// Merge returns a catalog with the topics of c followed by those of other.
// A topic in other replaces the same-named topic of c in place.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := &Catalog{index: make(map[string]int, len(c.topics)+len(other.topics))}
	for _, t := range c.topics {
		merged.index[strings.ToLower(t.Name)] = len(merged.topics)
		merged.topics = append(merged.topics, t)
	}
	for _, t := range other.topics {
		key := strings.ToLower(t.Name)
		if i, ok := merged.index[key]; ok {
			merged.topics[i] = t
			continue
		}
		merged.index[key] = len(merged.topics)
		merged.topics = append(merged.topics, t)
	}
	return merged
}
