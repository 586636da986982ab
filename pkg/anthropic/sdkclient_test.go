package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderslides/kinderslides/internal/resilience"
)

func writeMessage(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":  10,
			"output_tokens": 5,
		},
	})
}

func writeAPIError(w http.ResponseWriter, status int, typ, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"type":  "error",
		"error": map[string]any{"type": typ, "message": msg},
	})
}

func TestSDKClient_CreateMessage_WithImage(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body struct {
			System   []map[string]any `json:"system"`
			Messages []struct {
				Role    string           `json:"role"`
				Content []map[string]any `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Len(t, body.System, 1)
		assert.Equal(t, "Reply with JSON only.", body.System[0]["text"])
		require.Len(t, body.Messages, 1)
		require.Len(t, body.Messages[0].Content, 2)
		assert.Equal(t, "image", body.Messages[0].Content[0]["type"])
		src, _ := body.Messages[0].Content[0]["source"].(map[string]any)
		assert.Equal(t, "base64", src["type"])
		assert.Equal(t, "image/png", src["media_type"])
		assert.Equal(t, base64.StdEncoding.EncodeToString(img), src["data"])
		assert.Equal(t, "text", body.Messages[0].Content[1]["type"])

		writeMessage(w, `{"matches":true,"confidence":0.9,"description":"an apple"}`)
	}))
	defer ts.Close()

	temp := 0.0
	client := NewClient("test-key", WithBaseURL(ts.URL))
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   200,
		System:      "Reply with JSON only.",
		Temperature: &temp,
		Messages: []Message{{
			Role:    "user",
			Content: "Does this image show: Apple?",
			Images:  []Image{{MediaType: "image/png", Data: img}},
		}},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Contains(t, resp.Text(), `"matches":true`)
	assert.Equal(t, int64(10), resp.Usage.InputTokens)
}

func TestSDKClient_CreateMessage_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "api_error", "Internal server error")
	}))
	defer ts.Close()

	_, err := NewClient("test-key", WithBaseURL(ts.URL)).CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 16,
		Messages:  []Message{{Role: "user", Content: "Hello"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
	code, ok := resilience.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, resilience.IsRateLimit(err))
}

func TestSDKClient_CreateMessage_RateLimitNotRetried(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeAPIError(w, http.StatusTooManyRequests, "rate_limit_error", "Rate limit exceeded")
	}))
	defer ts.Close()

	_, err := NewClient("test-key", WithBaseURL(ts.URL)).CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 16,
		Messages:  []Message{{Role: "user", Content: "Hello"}},
	})
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimit(err))
	assert.Equal(t, 1, calls)
}
