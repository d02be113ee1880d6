package llm

import (
	"context"
	"encoding/json"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

type breakerCompleter struct {
	next Completer
	cb   *resilience.CircuitBreaker
}

// WithBreaker guards c with cb. While the circuit is open Complete returns
// resilience.ErrCircuitOpen without calling c.
func WithBreaker(c Completer, cb *resilience.CircuitBreaker) Completer {
	return &breakerCompleter{next: c, cb: cb}
}

func (b *breakerCompleter) Name() string { return b.next.Name() }

func (b *breakerCompleter) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) (json.RawMessage, error) {
		return b.next.Complete(ctx, req)
	})
}
