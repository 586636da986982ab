package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/query"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// extFor maps a probed media type to a file extension.
func extFor(mediaType string) string {
	if ext, ok := imageExtensions[mediaType]; ok {
		return ext
	}
	return ".img"
}

// slug turns an item name into a lower-case file name stem.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(query.Fold(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "item"
	}
	return s
}

// resultSummary is the JSON view of a resolution printed by the CLI and
// returned in manifests.
type resultSummary struct {
	Index       int                `json:"index,omitempty"`
	Item        string             `json:"item"`
	Hint        string             `json:"hint,omitempty"`
	Status      model.ResultStatus `json:"status"`
	File        string             `json:"file,omitempty"`
	Placeholder bool               `json:"placeholder,omitempty"`
	MediaType   string             `json:"media_type,omitempty"`
	Query       string             `json:"query,omitempty"`
	Profile     string             `json:"profile,omitempty"`
	SourceURL   string             `json:"source_url,omitempty"`
	VisionCalls int                `json:"vision_calls"`
}

func summarize(item model.Item, res model.Result) resultSummary {
	return resultSummary{
		Item:        item.Name,
		Hint:        item.Hint,
		Status:      res.Status,
		Placeholder: !res.Available(),
		MediaType:   res.MediaType,
		Query:       res.Query,
		Profile:     res.Profile,
		SourceURL:   res.SourceURL,
		VisionCalls: res.VisionCalls,
	}
}

// manifest describes a topic output directory.
type manifest struct {
	Topic       string          `json:"topic"`
	GeneratedAt time.Time       `json:"generated_at"`
	Items       []resultSummary `json:"items"`
	Available   int             `json:"available"`
	Unavailable int             `json:"unavailable"`
}

func writeManifest(dir string, m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal manifest")
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
