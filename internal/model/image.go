package model

// Profile is a named filter configuration applied to a provider search.
type Profile struct {
	Name       string `json:"name"`
	ImageType  string `json:"image_type"`         // "illustration", "vector", "photo", "all"
	Category   string `json:"category,omitempty"` // empty means no category filter
	MinWidth   int    `json:"min_width,omitempty"`
	MinHeight  int    `json:"min_height,omitempty"`
	PerPage    int    `json:"per_page"`
	SafeSearch bool   `json:"safe_search"`
}

// Candidate is one image returned by the provider for a query.
type Candidate struct {
	ID         int    `json:"id"`
	URL        string `json:"url"` // web-format URL, fetched for validation
	PreviewURL string `json:"preview_url,omitempty"`
	Tags       string `json:"tags"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// Verdict is the structured answer of the vision model.
type Verdict struct {
	Matches     bool    `json:"matches"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}
