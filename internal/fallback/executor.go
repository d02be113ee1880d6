// Package fallback runs a primary strategy and falls back to a deterministic
// secondary strategy when the primary is absent or fails.
package fallback

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Primary is a fallible strategy, typically an AI call.
type Primary[In, Out any] interface {
	Compute(ctx context.Context, in In) (Out, error)
}

// PrimaryFunc adapts a function to Primary.
type PrimaryFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Compute implements Primary.
func (f PrimaryFunc[In, Out]) Compute(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// Result is the chosen value and the label of the strategy that produced it.
type Result[Out any] struct {
	Value  Out
	Source string
	// PrimaryErr is the reason the primary was rejected, if it ran.
	PrimaryErr error
}

// Executor chains a Primary and a total Secondary.
type Executor[In, Out any] struct {
	// Stage names the caller in logs.
	Stage string
	// Primary may be nil, in which case Secondary always runs.
	Primary Primary[In, Out]
	// Secondary never fails.
	Secondary func(in In) Out
	// Backfill inspects primary output, filling missing parts from the
	// secondary value. An error rejects the primary output entirely.
	Backfill func(got Out, secondary func() Out) (Out, error)

	PrimaryLabel   string
	SecondaryLabel string
	// PrimaryPacing is slept after every primary call.
	PrimaryPacing time.Duration
	// SecondaryPacing is slept after the secondary strategy produced the result.
	SecondaryPacing time.Duration
	Sleep           resilience.SleepFunc
}

// Run computes the value for in. The only error returned is context
// cancellation; strategy failures are logged and absorbed.
func (e *Executor[In, Out]) Run(ctx context.Context, in In) (Result[Out], error) {
	sleep := e.Sleep
	if sleep == nil {
		sleep = resilience.Sleep
	}

	var (
		secondary Out
		computed  bool
	)
	lazySecondary := func() Out {
		if !computed {
			secondary = e.Secondary(in)
			computed = true
		}
		return secondary
	}

	var primaryErr error
	if e.Primary != nil {
		out, err := e.Primary.Compute(ctx, in)
		if err == nil && e.Backfill != nil {
			out, err = e.Backfill(out, lazySecondary)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result[Out]{}, ctxErr
		}

		// An open circuit means no call was made, so there is nothing to pace.
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			if perr := pause(ctx, sleep, e.PrimaryPacing); perr != nil {
				return Result[Out]{}, perr
			}
		}
		if err == nil {
			return Result[Out]{Value: out, Source: e.PrimaryLabel}, nil
		}

		primaryErr = err
		zap.L().Warn("primary strategy failed, using secondary",
			zap.String("stage", e.Stage),
			zap.String("fallback", e.SecondaryLabel),
			zap.String("error_type", resilience.ClassifyError(err)),
			zap.Error(err),
		)
	}

	value := lazySecondary()
	if err := pause(ctx, sleep, e.SecondaryPacing); err != nil {
		return Result[Out]{}, err
	}
	return Result[Out]{Value: value, Source: e.SecondaryLabel, PrimaryErr: primaryErr}, nil
}

func pause(ctx context.Context, sleep resilience.SleepFunc, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return sleep(ctx, d)
}
