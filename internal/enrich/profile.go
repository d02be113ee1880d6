package enrich

// Profile is the content part of an enrichment.
type Profile struct {
	PainPoints     []string `json:"pain_points"`
	BuyingTriggers []string `json:"buying_triggers"`
	Persona        string   `json:"persona"`
}

type industryProfile struct {
	painPoints []string
	triggers   []string
}

// Keyed by exact industry name.
var industryProfiles = map[string]industryProfile{
	"Technology": {
		painPoints: []string{"Technical debt slowing down release cycles", "High cloud infrastructure costs"},
		triggers:   []string{"Recent CTO hire", "Expanding engineering team"},
	},
	"Healthcare": {
		painPoints: []string{"HIPAA compliance data silos", "Manual patient record processing"},
		triggers:   []string{"New hospital wing opening", "Digitization initiative"},
	},
	"Finance": {
		painPoints: []string{"Slow manual reconciliation processes", "Regulatory reporting errors"},
		triggers:   []string{"Quarterly audit approaching", "Market expansion news"},
	},
	"Retail": {
		painPoints: []string{"Inventory mismanagement", "Low customer retention rates"},
		triggers:   []string{"Opening new store locations", "Holiday season approaching"},
	},
	"Manufacturing": {
		painPoints: []string{"Supply chain disruptions", "Machine downtime impacting yield"},
		triggers:   []string{"New factory launch", "Sustainability mandate"},
	},
}

var genericProfile = industryProfile{
	painPoints: []string{"Operational inefficiencies", "Need for automation"},
	triggers:   []string{"New leadership", "Cost cutting mandate"},
}

// OfflineProfile computes the rule-based profile for a role and industry.
// The returned slices are fresh copies.
func OfflineProfile(role, industry string) Profile {
	p, ok := industryProfiles[industry]
	if !ok {
		p = genericProfile
	}
	return Profile{
		PainPoints:     append([]string(nil), p.painPoints...),
		BuyingTriggers: append([]string(nil), p.triggers...),
		Persona:        OfflinePersona(role),
	}
}
