package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// LeadUpdate is a field-sparse write. Nil fields are left untouched; Status
// is always written.
type LeadUpdate struct {
	Status           LeadStatus
	PainPoints       []string
	BuyingTriggers   []string
	Persona          *string
	CompanySize      *CompanySize
	ConfidenceScore  *int
	EnrichmentSource *string
	Messages         *MessageBundle
	MessageSource    *string
}

// Transition moves one lead from an expected status to the status in Update.
// The store applies it only while the lead is still in From.
type Transition struct {
	LeadID     string
	From       LeadStatus
	Update     LeadUpdate
	DeadLetter *DeadLetter
}

// Validate checks the transition is a forward step.
func (t Transition) Validate() error {
	if t.LeadID == "" {
		return eris.New("model: transition without lead id")
	}
	if !t.From.CanTransition(t.Update.Status) {
		return eris.Errorf("model: invalid transition %s -> %s for lead %s", t.From, t.Update.Status, t.LeadID)
	}
	return nil
}

// DeadLetter records a lead whose delivery exhausted its retry budget.
type DeadLetter struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error"`
	ErrorType string    `json:"error_type"` // "transient" or "permanent"
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
