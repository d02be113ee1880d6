// Package pipeline runs lead stages against the store: it selects the leads
// in a stage's input status, processes them one at a time and commits the
// resulting transitions in batches.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Processor is one pipeline stage.
type Processor interface {
	Name() string
	// From is the only status the stage acts on.
	From() model.LeadStatus
	// Process computes the update for one lead. A *resilience.ExhaustedError
	// accompanies a terminal FAILED update and becomes a dead letter. Any
	// other error leaves the lead untouched, except context cancellation,
	// which stops the run.
	Process(ctx context.Context, lead model.Lead) (model.LeadUpdate, error)
}

// ExternalEffects is implemented by processors whose work is visible outside
// the store, such as sending mail. When it reports true the driver commits
// every record on its own, so a crash cannot repeat more than one record.
type ExternalEffects interface {
	HasExternalEffects() bool
}

// Driver runs processors over the store.
type Driver struct {
	store     store.Store
	batchSize int
}

// NewDriver creates a driver committing batchSize transitions per
// transaction. batchSize < 1 commits every record on its own.
func NewDriver(st store.Store, batchSize int) *Driver {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Driver{store: st, batchSize: batchSize}
}

// Run processes every lead currently in p.From(). Store errors abort the
// run; batches committed before the error stay committed.
func (d *Driver) Run(ctx context.Context, p Processor) (*Report, error) {
	log := zap.L().With(zap.String("stage", p.Name()))
	start := time.Now()
	report := newReport(p.Name())

	leads, err := d.store.ListLeads(ctx, store.LeadFilter{Status: p.From()})
	if err != nil {
		return report, eris.Wrapf(err, "pipeline: list %s leads", p.From())
	}
	report.Eligible = len(leads)
	if len(leads) == 0 {
		log.Info("pipeline: no eligible leads", zap.String("status", string(p.From())))
		return report, nil
	}
	size := d.batchSize
	if ext, ok := p.(ExternalEffects); ok && ext.HasExternalEffects() && size > 1 {
		log.Info("pipeline: stage has external effects, committing per record", zap.Int("batch_size", size))
		size = 1
	}
	log.Info("pipeline: stage starting", zap.Int("eligible", len(leads)))

	batch := make([]model.Transition, 0, size)
	flush := func(ctx context.Context) error {
		if len(batch) == 0 {
			return nil
		}
		applied, err := d.store.ApplyTransitions(ctx, batch)
		if err != nil {
			return eris.Wrapf(err, "pipeline: commit %s batch", p.Name())
		}
		report.Processed += applied
		report.Skipped += len(batch) - applied
		batch = make([]model.Transition, 0, size)
		return nil
	}

	for i, lead := range leads {
		if ctx.Err() != nil {
			return interrupted(ctx, report, flush, start)
		}
		leadLog := log.With(zap.String("lead_id", lead.ID), zap.Int("index", i+1))

		update, procErr := p.Process(ctx, lead)
		var dl *model.DeadLetter
		if procErr != nil {
			var exhausted *resilience.ExhaustedError
			switch {
			case ctx.Err() != nil:
				return interrupted(ctx, report, flush, start)
			case errors.As(procErr, &exhausted):
				dl = resilience.NewDeadLetter(lead.ID, p.Name(), exhausted.Attempts, exhausted.Err)
			default:
				leadLog.Error("pipeline: lead failed, left unchanged", zap.Error(procErr))
				report.Failed++
				continue
			}
		}

		t := model.Transition{LeadID: lead.ID, From: p.From(), Update: update, DeadLetter: dl}
		if err := t.Validate(); err != nil {
			leadLog.Error("pipeline: stage produced an invalid transition", zap.Error(err))
			report.Failed++
			continue
		}
		report.record(update)
		batch = append(batch, t)

		if len(batch) >= size {
			if err := flush(ctx); err != nil {
				report.Duration = time.Since(start)
				return report, err
			}
		}
	}

	if err := flush(ctx); err != nil {
		report.Duration = time.Since(start)
		return report, err
	}
	report.Duration = time.Since(start)
	log.Info("pipeline: stage complete",
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// interrupted commits the pending batch outside the canceled context so
// finished work survives, then reports the cancellation.
func interrupted(ctx context.Context, report *Report, flush func(context.Context) error, start time.Time) (*Report, error) {
	report.Duration = time.Since(start)
	if err := flush(context.WithoutCancel(ctx)); err != nil {
		return report, err
	}
	zap.L().Warn("pipeline: stage interrupted",
		zap.String("stage", report.Stage),
		zap.Int("processed", report.Processed),
	)
	return report, ctx.Err()
}

// RunAll runs the processors in order, stopping at the first error.
func (d *Driver) RunAll(ctx context.Context, processors ...Processor) ([]*Report, error) {
	reports := make([]*Report, 0, len(processors))
	for _, p := range processors {
		r, err := d.Run(ctx, p)
		reports = append(reports, r)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}
