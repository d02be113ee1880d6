package delivery

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/outreach-cli/internal/model"
)

// AuditLog is the append-only record of delivery attempts. It is separate
// from the store and is never read back by the pipeline.
type AuditLog struct {
	log *zap.Logger
}

// OpenAuditLog appends JSON lines to path.
func OpenAuditLog(path string) (*AuditLog, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewAuditLog(l), nil
}

// NewAuditLog wraps an existing logger.
func NewAuditLog(l *zap.Logger) *AuditLog {
	return &AuditLog{log: l.Named("audit")}
}

// Close flushes the log.
func (a *AuditLog) Close() error {
	if a == nil {
		return nil
	}
	return a.log.Sync()
}

func (a *AuditLog) emailSent(l model.Lead, attempts int) {
	if a == nil {
		return
	}
	a.log.Info("email sent",
		zap.String("lead_id", l.ID),
		zap.String("full_name", l.FullName),
		zap.String("email", l.Email),
		zap.Int("attempts", attempts),
	)
}

func (a *AuditLog) emailFailed(l model.Lead, attempts int, err error) {
	if a == nil {
		return
	}
	a.log.Error("email failed",
		zap.String("lead_id", l.ID),
		zap.String("full_name", l.FullName),
		zap.String("email", l.Email),
		zap.Int("attempts", attempts),
		zap.Error(err),
	)
}

func (a *AuditLog) linkedInSent(l model.Lead, message string) {
	if a == nil {
		return
	}
	a.log.Info("linkedin dm sent",
		zap.String("lead_id", l.ID),
		zap.String("full_name", l.FullName),
		zap.String("preview", preview(message, 30)),
		zap.Bool("simulated", true),
	)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
