package resilience

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Error types recorded on dead letters.
const (
	ErrorTypeTransient = "transient"
	ErrorTypePermanent = "permanent"
)

// ClassifyError categorizes an error as "transient" or "permanent".
func ClassifyError(err error) string {
	if IsTransient(err) {
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

// NewDeadLetter builds the dead-letter record for a lead that exhausted its
// attempts in stage.
func NewDeadLetter(leadID, stage string, attempts int, err error) *model.DeadLetter {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &model.DeadLetter{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Stage:     stage,
		Error:     msg,
		ErrorType: ClassifyError(err),
		Attempts:  attempts,
		CreatedAt: time.Now().UTC(),
	}
}
