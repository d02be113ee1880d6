// Package gemini wraps the Google GenAI SDK for structured JSON generation.
package gemini

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// Client defines the Gemini operations used by the outreach stages.
type Client interface {
	GenerateJSON(ctx context.Context, req Request) (*Response, error)
}

// Request asks the model for one JSON object matching Schema.
type Request struct {
	Model       string
	Prompt      string
	Schema      *genai.Schema
	Temperature *float32
}

// Response carries the raw JSON text and token counts.
type Response struct {
	Text         string
	InputTokens  int32
	OutputTokens int32
}

// Config configures the SDK client.
type Config struct {
	APIKey string
	// BaseURL overrides the Gemini API base URL. Useful for proxies and tests.
	BaseURL string
}

type sdkClient struct {
	client *genai.Client
}

// NewClient creates a Client backed by the Gemini API.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, eris.New("gemini: api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions.BaseURL = base
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: new client")
	}
	return &sdkClient{client: client}, nil
}

func (c *sdkClient) GenerateJSON(ctx context.Context, req Request) (*Response, error) {
	gc := &genai.GenerateContentConfig{
		CandidateCount:   1,
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
		Temperature:      req.Temperature,
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), gc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}

	out := &Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.InputTokens = resp.UsageMetadata.PromptTokenCount
		out.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	return out, nil
}

// StatusCode extracts the HTTP status from an API error, or 0.
func StatusCode(err error) int {
	var apiErr genai.APIError
	if eris.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if eris.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
