package model

import "time"

// LeadStatus is the pipeline state of a lead. It determines which stage may
// touch the record.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "NEW"
	LeadStatusEnriched   LeadStatus = "ENRICHED"
	LeadStatusMessaged   LeadStatus = "MESSAGED"
	LeadStatusSent       LeadStatus = "SENT"
	LeadStatusSentDryRun LeadStatus = "SENT_DRY_RUN"
	LeadStatusFailed     LeadStatus = "FAILED"
)

// AllStatuses lists every status in pipeline order.
var AllStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusEnriched,
	LeadStatusMessaged,
	LeadStatusSent,
	LeadStatusSentDryRun,
	LeadStatusFailed,
}

// rank orders statuses along NEW -> ENRICHED -> MESSAGED -> terminal.
var rank = map[LeadStatus]int{
	LeadStatusNew:        0,
	LeadStatusEnriched:   1,
	LeadStatusMessaged:   2,
	LeadStatusSent:       3,
	LeadStatusSentDryRun: 3,
	LeadStatusFailed:     3,
}

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	_, ok := rank[s]
	return ok
}

// Terminal reports whether no stage acts on a lead in this status.
func (s LeadStatus) Terminal() bool {
	return rank[s] == 3 && s.Valid()
}

// CanTransition reports whether moving from s to next is a forward step.
// Terminal statuses never transition; statuses never regress.
func (s LeadStatus) CanTransition(next LeadStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	return rank[next] == rank[s]+1
}

// CompanySize is a coarse company size bucket.
type CompanySize string

const (
	CompanySizeStartup    CompanySize = "Startup"
	CompanySizeMidMarket  CompanySize = "Mid-Market"
	CompanySizeEnterprise CompanySize = "Enterprise"
)

// CompanySizes is the draw order used by the enrichment stage.
var CompanySizes = []CompanySize{CompanySizeMidMarket, CompanySizeEnterprise, CompanySizeStartup}

// Provenance tags. The AI tag is shared by enrichment and generation.
const (
	SourceAI       = "AI"
	SourceOffline  = "OFFLINE"
	SourceTemplate = "TEMPLATE"
)

// Lead is a single prospect progressing through the pipeline.
type Lead struct {
	ID          string     `json:"id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	CompanyName string     `json:"company_name"`
	Role        string     `json:"role"`
	Industry    string     `json:"industry"`
	Status      LeadStatus `json:"status"`

	// Enrichment payload.
	PainPoints       []string    `json:"pain_points,omitempty"`
	BuyingTriggers   []string    `json:"buying_triggers,omitempty"`
	Persona          string      `json:"persona,omitempty"`
	CompanySize      CompanySize `json:"company_size,omitempty"`
	ConfidenceScore  int         `json:"confidence_score,omitempty"`
	EnrichmentSource string      `json:"enrichment_source,omitempty"`

	// Generation payload.
	Messages      *MessageBundle `json:"generated_messages,omitempty"`
	MessageSource string         `json:"message_source,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
