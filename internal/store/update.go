package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// assignment is one column = value pair of a field-sparse update.
type assignment struct {
	column string
	value  any
}

// leadAssignments lists only the columns the update sets. JSON payloads are
// encoded to text through the model codecs.
func leadAssignments(u model.LeadUpdate, now time.Time) ([]assignment, error) {
	out := []assignment{
		{"status", string(u.Status)},
		{"updated_at", now},
	}
	if u.PainPoints != nil {
		enc, err := model.EncodeStrings(u.PainPoints)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment{"pain_points", enc})
	}
	if u.BuyingTriggers != nil {
		enc, err := model.EncodeStrings(u.BuyingTriggers)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment{"buying_triggers", enc})
	}
	if u.Persona != nil {
		out = append(out, assignment{"persona", *u.Persona})
	}
	if u.CompanySize != nil {
		out = append(out, assignment{"company_size", string(*u.CompanySize)})
	}
	if u.ConfidenceScore != nil {
		out = append(out, assignment{"confidence_score", *u.ConfidenceScore})
	}
	if u.EnrichmentSource != nil {
		out = append(out, assignment{"enrichment_source", *u.EnrichmentSource})
	}
	if u.Messages != nil {
		enc, err := model.EncodeMessages(u.Messages)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment{"generated_messages", enc})
	}
	if u.MessageSource != nil {
		out = append(out, assignment{"message_source", *u.MessageSource})
	}
	return out, nil
}

// buildGuardedUpdate renders an UPDATE that only matches the lead while it
// is still in the expected status.
func buildGuardedUpdate(t model.Transition, now time.Time, placeholder func(int) string) (string, []any, error) {
	assigns, err := leadAssignments(t.Update, now)
	if err != nil {
		return "", nil, err
	}

	sets := make([]string, len(assigns))
	args := make([]any, 0, len(assigns)+2)
	for i, a := range assigns {
		sets[i] = fmt.Sprintf("%s = %s", a.column, placeholder(i+1))
		args = append(args, a.value)
	}
	n := len(assigns)
	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = %s AND status = %s",
		strings.Join(sets, ", "), placeholder(n+1), placeholder(n+2))
	args = append(args, t.LeadID, string(t.From))
	return query, args, nil
}

// insertValues returns the insert arguments for a lead, with nil for unset
// payloads.
func insertValues(l *model.Lead) ([]any, error) {
	var painPoints, buyingTriggers, messages any
	if l.PainPoints != nil {
		enc, err := model.EncodeStrings(l.PainPoints)
		if err != nil {
			return nil, err
		}
		painPoints = enc
	}
	if l.BuyingTriggers != nil {
		enc, err := model.EncodeStrings(l.BuyingTriggers)
		if err != nil {
			return nil, err
		}
		buyingTriggers = enc
	}
	if l.Messages != nil {
		enc, err := model.EncodeMessages(l.Messages)
		if err != nil {
			return nil, err
		}
		messages = enc
	}
	return []any{
		l.ID, l.FullName, l.Email, l.CompanyName, l.Role, l.Industry, string(l.Status),
		painPoints, buyingTriggers, nullIfEmpty(l.Persona), nullIfEmpty(string(l.CompanySize)),
		nullIfZero(l.ConfidenceScore), nullIfEmpty(l.EnrichmentSource),
		messages, nullIfEmpty(l.MessageSource), l.CreatedAt, l.UpdatedAt,
	}, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

const insertLeadColumns = `id, full_name, email, company_name, role, industry, status,
	pain_points, buying_triggers, persona, company_size, confidence_score, enrichment_source,
	generated_messages, message_source, created_at, updated_at`

func placeholders(n int, placeholder func(int) string) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = placeholder(i + 1)
	}
	return strings.Join(ps, ", ")
}

func sqlitePlaceholder(int) string { return "?" }

func postgresPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }
