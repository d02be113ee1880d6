// Package llm provides the AI completion capability used by the enrichment
// and generation stages. A nil Completer means no capability is configured.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/gemini"
)

// Provider names accepted by ai.provider.
const (
	ProviderAuto      = "auto"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

// ErrEmptyResponse is returned when the model produced no JSON object.
var ErrEmptyResponse = eris.New("llm: empty response")

// Request asks for one JSON object shaped like Shape.
type Request struct {
	// Stage labels the caller for usage logging.
	Stage  string
	Prompt string
	Shape  Shape
}

// Completer returns a JSON object for a prompt, or fails.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (json.RawMessage, error)
}

// New resolves the configured provider. It returns a nil Completer, and no
// error, when no provider has credentials.
func New(ctx context.Context, cfg *config.Config) (Completer, error) {
	log := zap.L().With(zap.String("component", "llm"))

	provider := strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if provider == "" {
		provider = ProviderAuto
	}

	var c Completer
	switch provider {
	case ProviderNone:
		return nil, nil
	case ProviderAnthropic:
		if cfg.Anthropic.Key == "" {
			log.Warn("ai.provider is anthropic but anthropic.key is empty; AI disabled")
			return nil, nil
		}
		c = newAnthropic(cfg)
	case ProviderGemini:
		if cfg.Gemini.Key == "" {
			log.Warn("ai.provider is gemini but gemini.key is empty; AI disabled")
			return nil, nil
		}
		g, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c = g
	case ProviderAuto:
		switch {
		case cfg.Anthropic.Key != "":
			c = newAnthropic(cfg)
		case cfg.Gemini.Key != "":
			g, err := newGemini(ctx, cfg)
			if err != nil {
				return nil, err
			}
			c = g
		default:
			log.Info("no AI credentials configured; stages run offline")
			return nil, nil
		}
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.AI.Provider)
	}

	breaker := resilience.FromCircuitConfig(cfg.AI.Breaker.FailureThreshold, cfg.AI.Breaker.ResetTimeoutSecs)
	breaker.OnStateChange = func(from, to resilience.CircuitState) {
		log.Warn("ai circuit breaker state change",
			zap.String("provider", c.Name()),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	log.Info("AI capability configured", zap.String("provider", c.Name()))
	return WithBreaker(c, resilience.NewCircuitBreaker(breaker)), nil
}

// providerError wraps a provider failure, marking retryable HTTP statuses as
// transient.
func providerError(err error, status int, msg string) error {
	if resilience.IsTransientHTTPStatus(status) {
		err = resilience.NewTransientError(err, status)
	}
	return eris.Wrap(err, msg)
}

func newAnthropic(cfg *config.Config) Completer {
	return NewAnthropicCompleter(
		anthropic.NewClient(cfg.Anthropic.Key, ""),
		cfg.Anthropic.Model,
		cfg.Anthropic.MaxTokens,
		cfg.AI.Temperature,
	)
}

func newGemini(ctx context.Context, cfg *config.Config) (Completer, error) {
	client, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.Gemini.Key, BaseURL: cfg.Gemini.BaseURL})
	if err != nil {
		return nil, eris.Wrap(err, "llm: init gemini")
	}
	return NewGeminiCompleter(client, cfg.Gemini.Model, cfg.AI.Temperature), nil
}

// decodeObject extracts the JSON object from model text, which may be
// wrapped in markdown fences or prose.
func decodeObject(text string) (json.RawMessage, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" || !strings.HasPrefix(cleaned, "{") {
		return nil, ErrEmptyResponse
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, eris.Wrap(err, "llm: decode response")
	}
	return json.RawMessage(cleaned), nil
}

func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
