package vision

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kinderslides/kinderslides/internal/resilience"
)

type fakeGenerator struct {
	parts []genai.Part
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func geminiText(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}},
	}}}
}

func TestGeminiBackend_Check(t *testing.T) {
	gen := &fakeGenerator{resp: geminiText(`{"matches":true,"confidence":0.8,"description":"a cat"}`)}
	b := &GeminiBackend{model: gen, modelName: DefaultGeminiModel}

	v, err := b.Check(context.Background(), []byte("png"), "image/png", "Cat")

	require.NoError(t, err)
	assert.True(t, v.Matches)
	require.Len(t, gen.parts, 2)
	blob, ok := gen.parts[1].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, "gemini", b.Name())
	assert.NoError(t, b.Close())
}

func TestGeminiBackend_EmptyResponse(t *testing.T) {
	b := &GeminiBackend{model: &fakeGenerator{resp: &genai.GenerateContentResponse{}}}

	_, err := b.Check(context.Background(), img, "image/png", "Cat")

	require.Error(t, err)
	assert.Equal(t, FailureMalformed, Classify(err))
}

func TestGeminiBackend_ErrorTranslation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), FailureRateLimit},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), FailureTimeout},
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "exhausted"}, FailureRateLimit},
		{"googleapi 400", &googleapi.Error{Code: http.StatusBadRequest, Message: "bad image"}, FailureOther},
		{"plain", errors.New("dial tcp: refused"), FailureOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &GeminiBackend{model: &fakeGenerator{err: tt.err}}
			_, err := b.Check(context.Background(), img, "image/png", "Cat")
			require.Error(t, err)
			assert.Equal(t, tt.want, Classify(err))
		})
	}
}

func TestTranslateGeminiError_KeepsStatus(t *testing.T) {
	err := translateGeminiError(&googleapi.Error{Code: http.StatusServiceUnavailable})
	code, ok := resilience.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestNewGeminiBackend_RequiresKey(t *testing.T) {
	_, err := NewGeminiBackend(context.Background(), " ", "")
	assert.Error(t, err)
}

func TestVerdictSchema(t *testing.T) {
	s := verdictSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"matches", "confidence", "description"}, s.Required)
}
