package vision

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/pkg/anthropic"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicBackend checks images with the Anthropic Messages API.
type AnthropicBackend struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicBackend creates a backend. Empty model and non-positive
// maxTokens fall back to defaults.
func NewAnthropicBackend(client anthropic.Client, modelName string, maxTokens int64) *AnthropicBackend {
	if modelName == "" {
		modelName = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &AnthropicBackend{client: client, model: modelName, maxTokens: maxTokens}
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string { return "anthropic" }

// Check implements Backend.
func (b *AnthropicBackend) Check(ctx context.Context, image []byte, mediaType, label string) (model.Verdict, error) {
	temp := 0.0
	resp, err := b.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       b.model,
		MaxTokens:   b.maxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: userPrompt(label),
			Images:  []anthropic.Image{{MediaType: mediaType, Data: image}},
		}},
	})
	if err != nil {
		return model.Verdict{}, eris.Wrap(err, "vision: anthropic check")
	}
	resp.Usage.LogCost(b.model, "vision")

	verdict, err := parseVerdict(resp.Text())
	if err != nil {
		return model.Verdict{}, eris.Wrap(err, "vision: anthropic reply")
	}
	return verdict, nil
}
