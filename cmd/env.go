package main

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/delivery"
	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/pipeline"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Stage names accepted on the command line and by the HTTP API.
const (
	stageEnrich   = "enrich"
	stageGenerate = "generate"
	stageDeliver  = "deliver"
	stageAll      = "all"
)

// stageEnv holds the store, the AI capability and the shared random source
// used to build stages. Callers should defer env.Close().
type stageEnv struct {
	cfg    *config.Config
	Store  store.Store
	Driver *pipeline.Driver
	AI     llm.Completer // nil runs offline

	rand *rand.Rand

	mu    sync.Mutex
	audit *delivery.AuditLog
}

// Close releases resources held by the environment.
func (e *stageEnv) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audit != nil {
		if err := e.audit.Close(); err != nil {
			zap.L().Debug("audit log sync failed", zap.Error(err))
		}
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates the config for mode, opens and migrates the store and
// resolves the AI capability.
func initEnv(ctx context.Context, c *config.Config, mode string) (*stageEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	ai, err := llm.New(ctx, c)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return newStageEnv(c, st, ai), nil
}

func newStageEnv(c *config.Config, st store.Store, ai llm.Completer) *stageEnv {
	return &stageEnv{
		cfg:    c,
		Store:  st,
		Driver: pipeline.NewDriver(st, c.Store.BatchSize),
		AI:     ai,
		rand:   pipeline.NewRand(c.Pipeline.Seed),
	}
}

// stages builds the processors for name, in pipeline order.
func (e *stageEnv) stages(name string) ([]pipeline.Processor, error) {
	switch name {
	case stageEnrich:
		return []pipeline.Processor{e.enrichStage()}, nil
	case stageGenerate:
		g, err := e.generateStage()
		if err != nil {
			return nil, err
		}
		return []pipeline.Processor{g}, nil
	case stageDeliver:
		d, err := e.deliveryStage()
		if err != nil {
			return nil, err
		}
		return []pipeline.Processor{d}, nil
	case stageAll:
		g, err := e.generateStage()
		if err != nil {
			return nil, err
		}
		d, err := e.deliveryStage()
		if err != nil {
			return nil, err
		}
		return []pipeline.Processor{e.enrichStage(), g, d}, nil
	default:
		return nil, eris.Errorf("unknown stage %q", name)
	}
}

func (e *stageEnv) enrichStage() *enrich.Stage {
	c := e.cfg.Enrichment
	return enrich.New(e.AI, enrich.Config{
		Mode:            c.Mode,
		PrimaryPacing:   config.Ms(c.PrimaryPacingMs),
		SecondaryPacing: config.Ms(c.SecondaryPacingMs),
		Rand:            e.rand,
	})
}

func (e *stageEnv) generateStage() (*generate.Stage, error) {
	c := e.cfg.Generation
	catalog := generate.DefaultCatalog()
	if c.TemplatesPath != "" {
		loaded, err := generate.LoadCatalog(c.TemplatesPath)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	if c.SenderName != "" {
		catalog.Sender = c.SenderName
	}
	return generate.New(e.AI, generate.Config{
		PrimaryPacing:   config.Ms(c.PrimaryPacingMs),
		SecondaryPacing: config.Ms(c.SecondaryPacingMs),
		Rand:            e.rand,
		Catalog:         catalog,
		StrictContract:  c.StrictContract,
	}), nil
}

func (e *stageEnv) deliveryStage() (*delivery.Stage, error) {
	c := e.cfg.Delivery
	stageCfg := delivery.Config{
		Mode:         c.Mode,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: config.Ms(c.RetryBackoffMs),
		Limiter:      delivery.NewLimiter(c.MessagesPerMinute),
	}
	if c.Mode != config.DeliveryModeLive {
		return delivery.New(nil, nil, nil, stageCfg), nil
	}

	audit, err := e.auditLog()
	if err != nil {
		return nil, err
	}
	social := &delivery.SimulatedLinkedIn{Delay: config.Ms(c.SocialDelayMs), Audit: audit}
	transport, err := delivery.NewSMTPTransport(c.SMTP)
	if err != nil {
		return nil, err
	}
	return delivery.New(transport, social, audit, stageCfg), nil
}

func (e *stageEnv) auditLog() (*delivery.AuditLog, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audit == nil {
		a, err := delivery.OpenAuditLog(e.cfg.Delivery.AuditLogPath)
		if err != nil {
			return nil, eris.Wrapf(err, "open audit log %s", e.cfg.Delivery.AuditLogPath)
		}
		e.audit = a
	}
	return e.audit, nil
}

// runLocked runs the named stage under the pipeline lock.
func (e *stageEnv) runLocked(ctx context.Context, name string) ([]*pipeline.Report, error) {
	procs, err := e.stages(name)
	if err != nil {
		return nil, err
	}
	lock, err := pipeline.AcquireLock(e.cfg.Pipeline.LockPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			zap.L().Warn("failed to release pipeline lock", zap.Error(err))
		}
	}()
	return e.Driver.RunAll(ctx, procs...)
}
