package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{APIKey: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestGenerateJSON(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `{"persona":"Technical Decision Maker"}`}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     12,
				"candidatesTokenCount": 7,
			},
		})
	}))
	defer ts.Close()

	client, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	temp := float32(0.7)
	resp, err := client.GenerateJSON(context.Background(), Request{
		Model:  "gemini-2.5-flash",
		Prompt: "Enrich this lead",
		Schema: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{"persona": {Type: genai.TypeString}},
			Required:   []string{"persona"},
		},
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"persona":"Technical Decision Maker"}`, resp.Text)
	assert.Equal(t, int32(12), resp.InputTokens)
	assert.Equal(t, int32(7), resp.OutputTokens)

	genCfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing from request")
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	assert.NotNil(t, genCfg["responseSchema"])
}

func TestGenerateJSON_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"error": map[string]any{
				"code":    400,
				"message": "bad request",
				"status":  "INVALID_ARGUMENT",
			},
		})
	}))
	defer ts.Close()

	client, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), Request{Model: "gemini-2.5-flash", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: generate content")
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 429, StatusCode(genai.APIError{Code: 429}))
	assert.Equal(t, 0, StatusCode(assert.AnError))
}
