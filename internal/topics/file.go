package topics

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/kinderslides/kinderslides/internal/model"
)

// fileCatalog is the YAML layout:
//
//	topics:
//	  - name: Fruit
//	    items:
//	      - name: Banana
//	        hint: banana cartoon
type fileCatalog struct {
	Topics []fileTopic `yaml:"topics"`
}

type fileTopic struct {
	Name  string     `yaml:"name"`
	Items []fileItem `yaml:"items"`
}

type fileItem struct {
	Name string `yaml:"name"`
	Hint string `yaml:"hint"`
}

// LoadFile reads custom topics from a .yaml/.yml or .xlsx file.
func LoadFile(path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, eris.Errorf("topics: unsupported file type %q", filepath.Ext(path))
	}
}

func loadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "topics: read yaml")
	}

	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "topics: parse yaml")
	}

	topics := make([]Topic, 0, len(fc.Topics))
	for _, ft := range fc.Topics {
		t := Topic{Name: ft.Name}
		for _, fi := range ft.Items {
			if strings.TrimSpace(fi.Name) == "" {
				continue
			}
			t.Items = append(t.Items, model.NewItem(fi.Name, fi.Hint))
		}
		topics = append(topics, t)
	}
	return NewCatalog(topics...)
}

// loadXLSX reads the first sheet. The header row must name the topic and
// item columns; hint is optional. Rows are grouped by topic in order of
// first appearance.
func loadXLSX(path string) (*Catalog, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "topics: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("topics: xlsx has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("topics: xlsx sheet is empty")
	}

	cols := map[string]int{"topic": -1, "item": -1, "hint": -1}
	for i, h := range rowToStrings(sheet.Rows[0]) {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := cols[key]; ok {
			cols[key] = i
		}
	}
	if cols["topic"] < 0 || cols["item"] < 0 {
		return nil, eris.New("topics: xlsx header must include topic and item columns")
	}

	var (
		topics []Topic
		byName = make(map[string]int)
	)
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		name := strings.TrimSpace(cell(cells, cols["topic"]))
		item := strings.TrimSpace(cell(cells, cols["item"]))
		if name == "" || item == "" {
			continue
		}
		key := strings.ToLower(name)
		i, ok := byName[key]
		if !ok {
			i = len(topics)
			byName[key] = i
			topics = append(topics, Topic{Name: name})
		}
		topics[i].Items = append(topics[i].Items, model.NewItem(item, cell(cells, cols["hint"])))
	}
	if len(topics) == 0 {
		return nil, eris.New("topics: xlsx has no item rows")
	}
	return NewCatalog(topics...)
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, c := range row.Cells {
		cells[j] = c.String()
	}
	return cells
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}
