package delivery

import (
	"context"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// SocialNotifier sends the secondary-channel message for a lead.
type SocialNotifier interface {
	Notify(ctx context.Context, lead model.Lead, message string) error
}

// SimulatedLinkedIn stands in for a LinkedIn DM integration. It waits Delay
// and records the message in the audit log; it never fails.
type SimulatedLinkedIn struct {
	Delay time.Duration
	Sleep resilience.SleepFunc
	Audit *AuditLog
}

// Notify implements SocialNotifier.
func (s *SimulatedLinkedIn) Notify(ctx context.Context, lead model.Lead, message string) error {
	if s.Delay > 0 {
		sleep := s.Sleep
		if sleep == nil {
			sleep = resilience.Sleep
		}
		if err := sleep(ctx, s.Delay); err != nil {
			return err
		}
	}
	s.Audit.linkedInSent(lead, message)
	return nil
}
