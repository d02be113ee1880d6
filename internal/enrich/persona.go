package enrich

import "strings"

// Offline personas, in classification priority order.
const (
	PersonaTechnical = "Technical Decision Maker"
	PersonaFinancial = "Financial Buyer"
	PersonaExecutive = "Executive Decision Maker"
	PersonaMarketing = "Marketing Lead"
	PersonaHR        = "HR Decision Maker"
	PersonaDeptHead  = "Department Head"
	PersonaDefault   = "Key Influencer"
)

type personaRule struct {
	persona  string
	keywords []string
}

// First matching rule wins.
var personaRules = []personaRule{
	{PersonaTechnical, []string{"cto", "engineering", "tech", "developer", "data", "architect"}},
	{PersonaFinancial, []string{"cfo", "finance", "treasurer", "audit"}},
	{PersonaExecutive, []string{"ceo", "founder", "president", "owner"}},
	{PersonaMarketing, []string{"marketing", "cmo", "brand"}},
	{PersonaHR, []string{"hr", "people", "talent"}},
	{PersonaDeptHead, []string{"manager", "head", "director", "lead"}},
}

// OfflinePersonas lists every persona OfflinePersona can return.
var OfflinePersonas = []string{
	PersonaTechnical, PersonaFinancial, PersonaExecutive,
	PersonaMarketing, PersonaHR, PersonaDeptHead, PersonaDefault,
}

// OfflinePersona classifies a job title by case-insensitive substring match.
func OfflinePersona(role string) string {
	r := strings.ToLower(role)
	for _, rule := range personaRules {
		for _, kw := range rule.keywords {
			if strings.Contains(r, kw) {
				return rule.persona
			}
		}
	}
	return PersonaDefault
}
