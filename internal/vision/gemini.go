package vision

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/resilience"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// contentGenerator is the part of *genai.GenerativeModel the backend uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiBackend checks images with the Gemini API.
type GeminiBackend struct {
	client    *genai.Client
	model     contentGenerator
	modelName string
}

// NewGeminiBackend creates a Gemini client configured for JSON verdicts.
func NewGeminiBackend(ctx context.Context, apiKey, modelName string) (*GeminiBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("vision: gemini api key is empty")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "vision: create gemini client")
	}

	m := cl.GenerativeModel(modelName)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   verdictSchema(),
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	return &GeminiBackend{client: cl, model: m, modelName: modelName}, nil
}

// Name implements Backend.
func (b *GeminiBackend) Name() string { return "gemini" }

// Close releases the underlying client.
func (b *GeminiBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Check implements Backend.
func (b *GeminiBackend) Check(ctx context.Context, image []byte, mediaType, label string) (model.Verdict, error) {
	resp, err := b.model.GenerateContent(ctx,
		genai.Text(userPrompt(label)),
		genai.Blob{MIMEType: mediaType, Data: image},
	)
	if err != nil {
		return model.Verdict{}, translateGeminiError(err)
	}

	txt := firstText(resp)
	if txt == "" {
		return model.Verdict{}, eris.Wrap(ErrMalformed, "vision: gemini returned no text")
	}
	verdict, err := parseVerdict(txt)
	if err != nil {
		return model.Verdict{}, eris.Wrap(err, "vision: gemini reply")
	}
	return verdict, nil
}

// translateGeminiError attaches an HTTP status to errors from the REST or
// gRPC transports so rate limits and timeouts classify correctly.
func translateGeminiError(err error) error {
	wrapped := eris.Wrap(err, "vision: gemini check")

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return resilience.NewStatusError(wrapped, gErr.Code)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return resilience.NewStatusError(wrapped, http.StatusTooManyRequests)
		case codes.DeadlineExceeded:
			return resilience.NewStatusError(wrapped, http.StatusGatewayTimeout)
		}
	}
	return wrapped
}

func verdictSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"matches": {
				Type:        genai.TypeBoolean,
				Description: "True if the picture clearly shows the requested thing",
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "Confidence between 0 and 1",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "One short sentence describing the picture",
			},
		},
		Required: []string{"matches", "confidence", "description"},
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
