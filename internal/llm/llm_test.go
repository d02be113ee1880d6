package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
	anthropicmocks "github.com/sells-group/outreach-cli/pkg/anthropic/mocks"
	"github.com/sells-group/outreach-cli/pkg/gemini"
	geminimocks "github.com/sells-group/outreach-cli/pkg/gemini/mocks"
)

var enrichShape = Shape{Fields: []Field{
	{Name: "pain_points", Kind: KindStringList, Description: "exactly 2 items"},
	{Name: "persona", Kind: KindString},
}}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: text}}}
}

func TestAnthropicCompleter_Complete(t *testing.T) {
	client := &anthropicmocks.MockClient{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 512 &&
			req.System != "" &&
			len(req.Messages) == 1 &&
			assert.Contains(t, req.Messages[0].Content, "Role: CTO") &&
			assert.Contains(t, req.Messages[0].Content, "- pain_points (array of strings): exactly 2 items")
	})).Return(textResponse("```json\n{\"persona\":\"Technical Buyer\",\"pain_points\":[\"a\",\"b\"]}\n```"), nil)

	c := NewAnthropicCompleter(client, "claude-haiku-4-5-20251001", 512, 0.7)
	raw, err := c.Complete(context.Background(), Request{Stage: "enrichment", Prompt: "Role: CTO", Shape: enrichShape})
	require.NoError(t, err)
	assert.JSONEq(t, `{"persona":"Technical Buyer","pain_points":["a","b"]}`, string(raw))
	client.AssertExpectations(t)
}

func TestAnthropicCompleter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		resp    *anthropic.MessageResponse
		err     error
		wantMsg string
	}{
		{"api error", nil, errors.New("429 rate limited"), "llm: anthropic complete"},
		{"prose only", textResponse("I cannot help with that."), nil, "empty response"},
		{"truncated json", textResponse(`{"persona": "CTO",`), nil, "llm: decode response"},
		{"invalid object", textResponse(`{"persona": CTO}`), nil, "llm: decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &anthropicmocks.MockClient{}
			client.On("CreateMessage", mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			c := NewAnthropicCompleter(client, "m", 0, 0.7)
			_, err := c.Complete(context.Background(), Request{Prompt: "x", Shape: enrichShape})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestProviderError_MarksTransientStatuses(t *testing.T) {
	err := providerError(errors.New("overloaded"), 529, "llm: anthropic complete")
	assert.False(t, resilience.IsTransient(err))

	err = providerError(errors.New("rate limited"), 429, "llm: anthropic complete")
	var te *resilience.TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 429, te.StatusCode)
	assert.Equal(t, resilience.ErrorTypeTransient, resilience.ClassifyError(err))
}

func TestGeminiCompleter_StatusErrorIsTransient(t *testing.T) {
	client := &geminimocks.MockClient{}
	client.On("GenerateJSON", mock.Anything, mock.Anything).Return(nil, genai.APIError{Code: 503, Message: "unavailable"})

	c := NewGeminiCompleter(client, "gemini-2.5-flash", 0.5)
	_, err := c.Complete(context.Background(), Request{Prompt: "x", Shape: enrichShape})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGeminiCompleter_Complete(t *testing.T) {
	client := &geminimocks.MockClient{}
	client.On("GenerateJSON", mock.Anything, mock.MatchedBy(func(req gemini.Request) bool {
		return req.Model == "gemini-2.5-flash" &&
			req.Schema != nil &&
			req.Schema.Type == genai.TypeObject &&
			req.Temperature != nil && *req.Temperature == float32(0.5)
	})).Return(&gemini.Response{Text: `{"persona":"CFO"}`}, nil)

	c := NewGeminiCompleter(client, "gemini-2.5-flash", 0.5)
	raw, err := c.Complete(context.Background(), Request{Prompt: "x", Shape: enrichShape})
	require.NoError(t, err)
	assert.JSONEq(t, `{"persona":"CFO"}`, string(raw))
	client.AssertExpectations(t)
}

func TestGeminiCompleter_Error(t *testing.T) {
	client := &geminimocks.MockClient{}
	client.On("GenerateJSON", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	c := NewGeminiCompleter(client, "gemini-2.5-flash", 0.5)
	_, err := c.Complete(context.Background(), Request{Prompt: "x", Shape: enrichShape})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm: gemini complete")
}

func TestShape_Schema(t *testing.T) {
	shape := Shape{Fields: []Field{
		{Name: "email_variant_1", Kind: KindObject, Fields: []Field{
			{Name: "subject", Kind: KindString},
			{Name: "body", Kind: KindString},
		}},
		{Name: "pain_points", Kind: KindStringList},
	}}

	s := shape.Schema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"email_variant_1", "pain_points"}, s.Required)

	email := s.Properties["email_variant_1"]
	require.NotNil(t, email)
	assert.Equal(t, genai.TypeObject, email.Type)
	assert.ElementsMatch(t, []string{"subject", "body"}, email.Required)

	list := s.Properties["pain_points"]
	require.NotNil(t, list)
	assert.Equal(t, genai.TypeArray, list.Type)
	assert.Equal(t, genai.TypeString, list.Items.Type)
}

func TestShape_InstructionsNestsObjects(t *testing.T) {
	shape := Shape{Fields: []Field{
		{Name: "email_variant_1", Kind: KindObject, Fields: []Field{{Name: "subject", Kind: KindString}}},
	}}
	out := shape.Instructions()
	assert.Contains(t, out, "- email_variant_1 (object)\n  - subject (string)\n")
}

type countingCompleter struct {
	calls int
	err   error
}

func (c *countingCompleter) Name() string { return "counting" }

func (c *countingCompleter) Complete(context.Context, Request) (json.RawMessage, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return json.RawMessage(`{}`), nil
}

func TestWithBreaker_OpensAfterFailures(t *testing.T) {
	inner := &countingCompleter{err: errors.New("boom")}
	c := WithBreaker(inner, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	}))
	assert.Equal(t, "counting", c.Name())

	for i := 0; i < 2; i++ {
		_, err := c.Complete(context.Background(), Request{})
		require.Error(t, err)
	}
	_, err := c.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
}

func TestNew_ProviderResolution(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		anthKey  string
		wantNil  bool
		wantName string
		wantErr  bool
	}{
		{name: "auto without keys", provider: "auto", wantNil: true},
		{name: "none ignores key", provider: "none", anthKey: "sk-test", wantNil: true},
		{name: "anthropic without key", provider: "anthropic", wantNil: true},
		{name: "gemini without key", provider: "gemini", anthKey: "sk-test", wantNil: true},
		{name: "auto picks anthropic", provider: "auto", anthKey: "sk-test", wantName: ProviderAnthropic},
		{name: "empty provider is auto", provider: "", anthKey: "sk-test", wantName: ProviderAnthropic},
		{name: "unknown provider", provider: "openai", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.AI.Provider = tt.provider
			cfg.Anthropic.Key = tt.anthKey
			cfg.Anthropic.Model = "claude-haiku-4-5-20251001"

			c, err := New(context.Background(), cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.Equal(t, tt.wantName, c.Name())
		})
	}
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("Here you go: {\"a\":1} hope it helps"))
	assert.Equal(t, "", cleanJSON("   "))
}
