package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/model"
)

const systemPrompt = `You check pictures for a children's picture book.
Answer with a single JSON object and nothing else:
{"matches": true|false, "confidence": number between 0 and 1, "description": "one short sentence"}
"matches" is true only if the main subject of the picture is clearly the requested thing.`

func userPrompt(label string) string {
	return fmt.Sprintf("Does this picture clearly show: %q? Describe what you see.", label)
}

type rawVerdict struct {
	Matches     *bool    `json:"matches"`
	Confidence  *float64 `json:"confidence"`
	Description string   `json:"description"`
}

// parseVerdict decodes a model reply. Missing fields and out-of-range
// confidences are ErrMalformed.
func parseVerdict(text string) (model.Verdict, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return model.Verdict{}, eris.Wrap(ErrMalformed, "empty reply")
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return model.Verdict{}, eris.Wrapf(ErrMalformed, "decode reply: %v", err)
	}
	if raw.Matches == nil || raw.Confidence == nil {
		return model.Verdict{}, eris.Wrap(ErrMalformed, "missing matches or confidence")
	}
	if *raw.Confidence < 0 || *raw.Confidence > 1 {
		return model.Verdict{}, eris.Wrapf(ErrMalformed, "confidence %v out of range", *raw.Confidence)
	}

	return model.Verdict{
		Matches:     *raw.Matches,
		Confidence:  *raw.Confidence,
		Description: strings.TrimSpace(raw.Description),
	}, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
