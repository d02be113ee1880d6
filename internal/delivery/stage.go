// Package delivery implements the delivery stage: MESSAGED leads have their
// primary email sent (or logged in dry-run mode) and reach a terminal status.
package delivery

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// StageName labels the delivery stage in logs, reports and dead letters.
const StageName = "delivery"

// Limiter paces live sends.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter allows perMinute sends per minute with no burst, so the first
// send is immediate and later ones are spaced evenly. perMinute <= 0
// disables pacing.
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Config controls the delivery stage.
type Config struct {
	// Mode is "live" or "dry_run". Any other value behaves as dry run.
	Mode         string
	MaxRetries   int
	RetryBackoff time.Duration
	// Sleep is used between send attempts.
	Sleep   resilience.SleepFunc
	Limiter Limiter
}

// Stage delivers MESSAGED leads.
type Stage struct {
	cfg       Config
	transport Transport
	social    SocialNotifier
	audit     *AuditLog
	log       *zap.Logger
}

// New creates the delivery stage. transport and social are only used in
// live mode; audit may be nil.
func New(transport Transport, social SocialNotifier, audit *AuditLog, cfg Config) *Stage {
	log := zap.L().With(zap.String("stage", StageName), zap.String("mode", cfg.Mode))
	if cfg.Mode != config.DeliveryModeLive && cfg.Mode != config.DeliveryModeDryRun {
		log.Warn("unknown delivery mode, treating as dry run")
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewLimiter(0)
	}
	return &Stage{cfg: cfg, transport: transport, social: social, audit: audit, log: log}
}

// Name implements pipeline.Processor.
func (s *Stage) Name() string { return StageName }

// From implements pipeline.Processor.
func (s *Stage) From() model.LeadStatus { return model.LeadStatusMessaged }

// Live reports whether the stage transmits messages.
func (s *Stage) Live() bool { return s.cfg.Mode == config.DeliveryModeLive }

// HasExternalEffects reports whether processing a lead sends mail. The
// driver commits such stages one record at a time.
func (s *Stage) HasExternalEffects() bool { return s.Live() }

// Process sends the lead's primary email. When every attempt fails it
// returns a FAILED update together with a *resilience.ExhaustedError
// describing the last failure.
func (s *Stage) Process(ctx context.Context, lead model.Lead) (model.LeadUpdate, error) {
	email := lead.Messages.PrimaryEmail()
	linkedIn := lead.Messages.PrimaryLinkedIn()
	log := s.log.With(zap.String("lead_id", lead.ID))

	if !s.Live() {
		log.Info("dry run: email not sent",
			zap.String("to", lead.Email),
			zap.String("subject", email.Subject),
		)
		log.Info("dry run: linkedin dm not sent")
		return model.LeadUpdate{Status: model.LeadStatusSentDryRun}, nil
	}

	if s.transport == nil {
		return model.LeadUpdate{}, eris.New("delivery: live mode requires a transport")
	}
	if err := s.cfg.Limiter.Wait(ctx); err != nil {
		return model.LeadUpdate{}, eris.Wrap(err, "delivery: rate limit wait")
	}

	retry := resilience.FixedRetryConfig(s.cfg.MaxRetries, s.cfg.RetryBackoff)
	retry.Sleep = s.cfg.Sleep
	retry.OnRetry = resilience.RetryLogger(log, "smtp send")

	attempts, err := resilience.Do(ctx, retry, func(ctx context.Context) error {
		return s.transport.Send(ctx, lead.Email, email.Subject, email.Body)
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.LeadUpdate{}, ctxErr
	}
	if err != nil {
		log.Error("email failed, retries exhausted", zap.Int("attempts", attempts), zap.Error(err))
		s.audit.emailFailed(lead, attempts, err)
		return model.LeadUpdate{Status: model.LeadStatusFailed}, &resilience.ExhaustedError{Attempts: attempts, Err: err}
	}

	log.Info("email sent", zap.Int("attempts", attempts))
	s.audit.emailSent(lead, attempts)

	if s.social != nil {
		// The email is out; a missed DM does not change the outcome.
		if err := s.social.Notify(ctx, lead, linkedIn); err != nil {
			log.Warn("linkedin dm not sent", zap.Error(err))
		}
	}
	return model.LeadUpdate{Status: model.LeadStatusSent}, nil
}
