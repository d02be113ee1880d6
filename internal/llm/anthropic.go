package llm

import (
	"context"
	"encoding/json"

	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

const systemPrompt = "You are a B2B sales research assistant. You respond with strict JSON only."

// AnthropicCompleter implements Completer with the Messages API.
type AnthropicCompleter struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicCompleter wraps client.
func NewAnthropicCompleter(client anthropic.Client, model string, maxTokens int64, temperature float64) *AnthropicCompleter {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicCompleter{client: client, model: model, maxTokens: maxTokens, temperature: temperature}
}

// Name implements Completer.
func (c *AnthropicCompleter) Name() string { return ProviderAnthropic }

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	temp := c.temperature
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: req.Prompt + "\n\n" + req.Shape.Instructions()},
		},
		Temperature: &temp,
	})
	if err != nil {
		return nil, providerError(err, anthropic.StatusCode(err), "llm: anthropic complete")
	}
	resp.Usage.LogCost(c.model, req.Stage)
	return decodeObject(resp.Text())
}
