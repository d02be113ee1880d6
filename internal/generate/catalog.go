package generate

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Template categories.
const (
	CategoryTechnology    = "Technology"
	CategoryHealthcare    = "Healthcare"
	CategoryFinance       = "Finance"
	CategoryRetail        = "Retail"
	CategoryManufacturing = "Manufacturing"
	CategoryGeneric       = "Generic"
)

// DefaultSender signs template emails when no sender is configured.
const DefaultSender = "Ashwin"

// Template is one email subject/body pair. Placeholders are written as
// {company}, {role}, {first_name}, {industry} and {sender}.
type Template struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// Catalog is the set of templates used when no AI content is available.
type Catalog struct {
	// Industries maps a category to its variants. Generic is required.
	Industries map[string][]Template `yaml:"industries"`
	FollowUp   Template              `yaml:"follow_up"`
	LinkedIn   []string              `yaml:"linkedin"`
	Sender     string                `yaml:"sender"`
}

type categoryRule struct {
	category string
	keywords []string
}

// Checked in order when the industry is not a category name.
var categoryRules = []categoryRule{
	{CategoryTechnology, []string{"tech", "soft", "saas", "it", "data"}},
	{CategoryHealthcare, []string{"health", "med", "pharma"}},
	{CategoryFinance, []string{"fin", "bank", "invest"}},
	{CategoryRetail, []string{"retail", "brand", "commerce"}},
	{CategoryManufacturing, []string{"manufactur", "plant", "production"}},
}

// DefaultCatalog returns the built-in templates.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Industries: map[string][]Template{
			CategoryTechnology: {
				{
					Subject: "Accelerating {company}'s deployment cycles",
					Body:    "Hi {first_name},\n\nNoticed {company} is scaling fast. Often, rapid growth creates tech debt that slows down engineering velocity.\n\nWe help tech leaders automate CI/CD pipelines so your team focuses on shipping code, not fixing builds.\n\nOpen to a 15-min chat?\n\nBest,\n{sender}",
				},
				{
					Subject: "DevOps bottlenecks at {company}",
					Body:    "Hi {first_name},\n\nAs a {role}, you know that manual ops work kills productivity. We allow engineering teams to self-serve infrastructure securely.\n\nWould love to show you how we reduce deployment time by 40%.\n\nBest,\n{sender}",
				},
			},
			CategoryHealthcare: {
				{
					Subject: "Patient data efficiency at {company}",
					Body:    "Hi {first_name},\n\nI imagine data interoperability and patient experience are top priorities at {company}.\n\nWe help healthcare leaders automate patient intake forms securely, reducing admin workload by 20 hours/week.\n\nWorth a brief conversation?\n\nBest,\n{sender}",
				},
				{
					Subject: "Streamlining clinical ops",
					Body:    "Hi {first_name},\n\nManaging clinical operations often means drowning in paperwork. It doesn't have to be that way.\n\nWe automate compliance checks and scheduling. Free for a 15-min demo?\n\nCheers,\n{sender}",
				},
			},
			CategoryFinance: {
				{
					Subject: "Risk mitigation at {company}",
					Body:    "Hi {first_name},\n\nWith current market volatility, manual reconciliation is a huge risk for the {role}.\n\nOur AI automates financial reporting with 99.9% accuracy, ensuring you are audit-ready.\n\nCan we chat next week?\n\nBest,\n{sender}",
				},
				{
					Subject: "Automating {company}'s compliance",
					Body:    "Hi {first_name},\n\nKeeping up with regulatory changes manually is tough. We help finance teams monitor transactions in real-time.\n\nWould love to share some insights on fraud detection.\n\nBest,\n{sender}",
				},
			},
			CategoryRetail: {
				{
					Subject: "Inventory optimization for {company}",
					Body:    "Hi {first_name},\n\nBig fan of {company}. As the {role}, are stockouts or overstocking affecting your margins?\n\nWe help retail brands predict inventory needs using AI, cutting storage costs by 20%.\n\nOpen to a 15-min call?\n\nBest,\n{sender}",
				},
				{
					Subject: "{company}'s omnichannel experience",
					Body:    "Hi {first_name},\n\nSaw your role as {role}. Connecting online and offline data is often a headache.\n\nWe unify customer data to personalize shopping experiences automatically.\n\nWorth a quick chat?\n\nCheers,\n{sender}",
				},
			},
			CategoryManufacturing: {
				{
					Subject: "Reducing downtime at {company}",
					Body:    "Hi {first_name},\n\nReaching out to the {role} at {company}. Unplanned equipment downtime is costly.\n\nOur AI predicts maintenance needs before machines fail. Would love to show you how.\n\nBest,\n{sender}",
				},
				{
					Subject: "Supply chain visibility",
					Body:    "Hi {first_name},\n\nOptimizing logistics and production flow is likely your priority. We automate supply chain tracking from raw material to delivery.\n\nFree for a call this week?\n\nBest,\n{sender}",
				},
			},
			CategoryGeneric: {
				{
					Subject: "Growth at {company}",
					Body:    "Hi {first_name},\n\nI've been following {company}'s growth. We use AI to automate manual workflows, saving teams 20+ hours a week.\n\nWorth a conversation?\n\nBest,\n{sender}",
				},
			},
		},
		FollowUp: Template{
			Subject: "Quick check on {company}",
			Body:    "Hi {first_name}, just following up. Open to a chat about automation? Best, {sender}",
		},
		LinkedIn: []string{
			"Hi {first_name}, connecting to see how {company} is handling scale in the {industry} space.",
			"Hey {first_name}, huge fan of {company}. Would love to share how other {role}s are using AI.",
		},
		Sender: DefaultSender,
	}
}

// LoadCatalog reads a YAML override and merges it over the built-in
// catalog. Listed industries replace the built-in variants for that
// category; new categories are only reachable by exact industry match.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "generate: read catalog %s", path)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, eris.Wrapf(err, "generate: parse catalog %s", path)
	}

	c := DefaultCatalog()
	for name, variants := range override.Industries {
		c.Industries[name] = variants
	}
	if override.FollowUp.Subject != "" || override.FollowUp.Body != "" {
		c.FollowUp = override.FollowUp
	}
	if len(override.LinkedIn) > 0 {
		c.LinkedIn = override.LinkedIn
	}
	if override.Sender != "" {
		c.Sender = override.Sender
	}

	if err := c.Validate(); err != nil {
		return nil, eris.Wrapf(err, "generate: catalog %s", path)
	}
	return c, nil
}

// Validate checks every category has at least one usable variant.
func (c *Catalog) Validate() error {
	if len(c.Industries[CategoryGeneric]) == 0 {
		return eris.New("generate: catalog has no Generic templates")
	}
	for name, variants := range c.Industries {
		if len(variants) == 0 {
			return eris.Errorf("generate: category %q has no templates", name)
		}
		for i, t := range variants {
			if strings.TrimSpace(t.Subject) == "" || strings.TrimSpace(t.Body) == "" {
				return eris.Errorf("generate: category %q variant %d needs subject and body", name, i+1)
			}
		}
	}
	if len(c.LinkedIn) == 0 || strings.TrimSpace(c.LinkedIn[0]) == "" {
		return eris.New("generate: catalog has no LinkedIn template")
	}
	return nil
}

// Category resolves the template category for an industry: an exact
// category name first, then keyword matching, then Generic.
func (c *Catalog) Category(industry string) string {
	if _, ok := c.Industries[industry]; ok {
		return industry
	}
	raw := strings.ToLower(industry)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(raw, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneric
}
