package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *sdkClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c, err := newClient(context.Background(), "test-key", ts.URL)
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-1.5-pro:generateContent")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "```json\n{\"trend_direction\": \"Upward\"}\n```"}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     120,
				"candidatesTokenCount": 40,
				"totalTokenCount":      160,
			},
			"modelVersion": "gemini-1.5-pro-002",
		})
	})

	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:  "gemini-1.5-pro",
		Prompt: "How is the market trending in Powai?",
	})
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"trend_direction\": \"Upward\"}\n```", resp.Text)
	assert.Equal(t, "gemini-1.5-pro-002", resp.ModelVersion)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(40), resp.Usage.OutputTokens)

	contents, ok := body["contents"].([]any)
	require.True(t, ok)
	assert.Len(t, contents, 1)
	assert.Nil(t, body["generationConfig"])
}

func TestGenerate_WithConfig(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`)) //nolint:errcheck
	})

	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:           "gemini-1.5-flash",
		Prompt:          "hi",
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int64(0), resp.Usage.InputTokens)

	gc, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 256, gc["maxOutputTokens"])
}

func TestGenerate_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`)) //nolint:errcheck
	})

	_, err := c.Generate(context.Background(), GenerateRequest{Model: "gemini-1.5-pro", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: generate content")
	assert.Contains(t, err.Error(), "quota")

	code, status := APIStatus(err)
	assert.Equal(t, 429, code)
	assert.Equal(t, "RESOURCE_EXHAUSTED", status)
}

func TestAPIStatus_Other(t *testing.T) {
	code, status := APIStatus(eris.New("dial tcp: i/o timeout"))
	assert.Equal(t, 0, code)
	assert.Empty(t, status)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}
