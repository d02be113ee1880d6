package llm

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/pkg/gemini"
)

// GeminiCompleter implements Completer with native JSON schema output.
type GeminiCompleter struct {
	client      gemini.Client
	model       string
	temperature float32
}

// NewGeminiCompleter wraps client.
func NewGeminiCompleter(client gemini.Client, model string, temperature float64) *GeminiCompleter {
	return &GeminiCompleter{client: client, model: model, temperature: float32(temperature)}
}

// Name implements Completer.
func (c *GeminiCompleter) Name() string { return ProviderGemini }

// Complete implements Completer.
func (c *GeminiCompleter) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	temp := c.temperature
	resp, err := c.client.GenerateJSON(ctx, gemini.Request{
		Model:       c.model,
		Prompt:      req.Prompt,
		Schema:      req.Shape.Schema(),
		Temperature: &temp,
	})
	if err != nil {
		return nil, providerError(err, gemini.StatusCode(err), "llm: gemini complete")
	}
	zap.L().Debug("gemini usage",
		zap.String("model", c.model),
		zap.String("stage", req.Stage),
		zap.Int32("input_tokens", resp.InputTokens),
		zap.Int32("output_tokens", resp.OutputTokens),
	)
	return decodeObject(resp.Text)
}
