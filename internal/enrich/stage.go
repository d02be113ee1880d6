// Package enrich implements the enrichment stage: NEW leads receive a
// persona, pain points, buying triggers and synthetic sizing metadata.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/fallback"
	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// StageName labels the enrichment stage in logs, reports and dead letters.
const StageName = "enrichment"

// Confidence scores are drawn from [minConfidence, maxConfidence].
const (
	minConfidence = 75
	maxConfidence = 98
)

// Config controls the enrichment stage.
type Config struct {
	// Mode is "offline" or "ai". AI mode without a Completer runs offline.
	Mode            string
	PrimaryPacing   time.Duration
	SecondaryPacing time.Duration
	Sleep           resilience.SleepFunc
	// Rand draws company size and confidence. Nil uses a random seed.
	Rand *rand.Rand
}

// Stage enriches NEW leads.
type Stage struct {
	exec *fallback.Executor[model.Lead, Profile]
	rand *rand.Rand
}

// New creates the enrichment stage. ai may be nil.
func New(ai llm.Completer, cfg Config) *Stage {
	r := cfg.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	exec := &fallback.Executor[model.Lead, Profile]{
		Stage: StageName,
		Secondary: func(l model.Lead) Profile {
			return OfflineProfile(l.Role, l.Industry)
		},
		Backfill:        backfill,
		PrimaryLabel:    model.SourceAI,
		SecondaryLabel:  model.SourceOffline,
		PrimaryPacing:   cfg.PrimaryPacing,
		SecondaryPacing: cfg.SecondaryPacing,
		Sleep:           cfg.Sleep,
	}
	if cfg.Mode == config.EnrichModeAI {
		if ai != nil {
			exec.Primary = &aiEnricher{ai: ai}
		} else {
			zap.L().Info("enrichment: ai mode requested without AI credentials, running offline")
		}
	}

	return &Stage{exec: exec, rand: r}
}

// Name implements pipeline.Processor.
func (s *Stage) Name() string { return StageName }

// From implements pipeline.Processor.
func (s *Stage) From() model.LeadStatus { return model.LeadStatusNew }

// Process computes the enrichment update for one lead.
func (s *Stage) Process(ctx context.Context, lead model.Lead) (model.LeadUpdate, error) {
	// Drawn once per lead, independent of the strategy path.
	size := model.CompanySizes[s.rand.IntN(len(model.CompanySizes))]
	confidence := minConfidence + s.rand.IntN(maxConfidence-minConfidence+1)

	res, err := s.exec.Run(ctx, lead)
	if err != nil {
		return model.LeadUpdate{}, err
	}

	zap.L().Debug("lead enriched",
		zap.String("lead_id", lead.ID),
		zap.String("source", res.Source),
		zap.String("persona", res.Value.Persona),
	)

	return model.LeadUpdate{
		Status:           model.LeadStatusEnriched,
		PainPoints:       res.Value.PainPoints,
		BuyingTriggers:   res.Value.BuyingTriggers,
		Persona:          model.Ptr(res.Value.Persona),
		CompanySize:      model.Ptr(size),
		ConfidenceScore:  model.Ptr(confidence),
		EnrichmentSource: model.Ptr(res.Source),
	}, nil
}

// backfill accepts partial AI output. Missing lists and persona come from
// the offline profile; output with no usable field is rejected.
func backfill(got Profile, offline func() Profile) (Profile, error) {
	got.PainPoints = compact(got.PainPoints)
	got.BuyingTriggers = compact(got.BuyingTriggers)
	got.Persona = normalizePersona(got.Persona)

	if len(got.PainPoints) == 0 && len(got.BuyingTriggers) == 0 && got.Persona == "" {
		return got, eris.New("enrich: AI response has no pain_points, buying_triggers or persona")
	}
	if len(got.PainPoints) == 0 {
		got.PainPoints = offline().PainPoints
	}
	if len(got.BuyingTriggers) == 0 {
		got.BuyingTriggers = offline().BuyingTriggers
	}
	if got.Persona == "" {
		got.Persona = offline().Persona
	}
	return got, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// normalizePersona collapses whitespace and title-cases all-lowercase
// labels. Mixed-case labels such as "VP of IT Buyer" are kept.
func normalizePersona(p string) string {
	p = strings.Join(strings.Fields(p), " ")
	if p != "" && p == strings.ToLower(p) {
		return cases.Title(language.English).String(p)
	}
	return p
}

var enrichShape = llm.Shape{Fields: []llm.Field{
	{Name: "pain_points", Kind: llm.KindStringList, Description: "exactly 2 specific business challenges"},
	{Name: "buying_triggers", Kind: llm.KindStringList, Description: "exactly 2 recent events indicating need"},
	{Name: "persona", Kind: llm.KindString, Description: "buyer persona, e.g. 'Technical Decision Maker', 'Financial Buyer', 'Operational Lead'"},
}}

type aiEnricher struct {
	ai llm.Completer
}

func (a *aiEnricher) Compute(ctx context.Context, l model.Lead) (Profile, error) {
	raw, err := a.ai.Complete(ctx, llm.Request{
		Stage:  StageName,
		Prompt: enrichPrompt(l),
		Shape:  enrichShape,
	})
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, eris.Wrap(err, "enrich: decode AI profile")
	}
	return p, nil
}

func enrichPrompt(l model.Lead) string {
	return fmt.Sprintf("Analyze this lead: Role: %s, Industry: %s, Company: %s.\n"+
		"Identify the specific business challenges and recent buying signals for this buyer.",
		l.Role, l.Industry, l.CompanyName)
}
