package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = eris.New("store: lead not found")

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status model.LeadStatus `json:"status,omitempty"`
	// Limit caps the result size. Zero lists every match.
	Limit int `json:"limit,omitempty"`
}

// Store persists leads and their stage transitions.
type Store interface {
	// Leads
	InsertLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	CountByStatus(ctx context.Context) (map[model.LeadStatus]int, error)

	// ApplyTransitions commits the transitions in one transaction. A
	// transition whose lead is no longer in its From status is skipped.
	// Returns the number applied.
	ApplyTransitions(ctx context.Context, transitions []model.Transition) (int, error)

	// Dead letters
	RequeueFailed(ctx context.Context, ids []string) (int, error)
	ListDeadLetters(ctx context.Context, limit int) ([]model.DeadLetter, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const deadLetterColumns = `id, lead_id, stage, error, error_type, attempts, created_at`

type scannable interface {
	Scan(dest ...any) error
}

// leadRow mirrors the selected lead columns with JSON payloads as text.
type leadRow struct {
	lead           model.Lead
	status         string
	painPoints     string
	buyingTriggers string
	companySize    string
	messages       string
}

func (r *leadRow) dest() []any {
	l := &r.lead
	return []any{
		&l.ID, &l.FullName, &l.Email, &l.CompanyName, &l.Role, &l.Industry, &r.status,
		&r.painPoints, &r.buyingTriggers, &l.Persona, &r.companySize, &l.ConfidenceScore, &l.EnrichmentSource,
		&r.messages, &l.MessageSource, &l.CreatedAt, &l.UpdatedAt,
	}
}

// finish decodes the text payloads. A malformed payload is logged and left
// empty so a single bad row cannot abort a stage run.
func (r *leadRow) finish() *model.Lead {
	l := r.lead
	l.Status = model.LeadStatus(r.status)
	l.CompanySize = model.CompanySize(r.companySize)

	log := zap.L().With(zap.String("lead_id", l.ID))
	var err error
	if l.PainPoints, err = model.DecodeStrings(r.painPoints); err != nil {
		log.Warn("store: malformed pain_points", zap.Error(err))
	}
	if l.BuyingTriggers, err = model.DecodeStrings(r.buyingTriggers); err != nil {
		log.Warn("store: malformed buying_triggers", zap.Error(err))
	}
	if l.Messages, err = model.DecodeMessages(r.messages); err != nil {
		log.Warn("store: malformed generated_messages", zap.Error(err))
	}
	return &l
}

func scanLead(row scannable) (*model.Lead, error) {
	var r leadRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.finish(), nil
}

func scanDeadLetter(row scannable) (model.DeadLetter, error) {
	var d model.DeadLetter
	err := row.Scan(&d.ID, &d.LeadID, &d.Stage, &d.Error, &d.ErrorType, &d.Attempts, &d.CreatedAt)
	return d, err
}

// prepareLead fills the id, initial status and timestamps of a new lead.
func prepareLead(l *model.Lead, now time.Time) error {
	if l == nil {
		return eris.New("store: nil lead")
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = model.LeadStatusNew
	}
	if !l.Status.Valid() {
		return eris.Errorf("store: invalid status %q", l.Status)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	return nil
}

func validateTransitions(transitions []model.Transition) error {
	for _, t := range transitions {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}
