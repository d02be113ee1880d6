// Package generate implements the message generation stage: ENRICHED leads
// receive a two-email, two-LinkedIn message bundle.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/fallback"
	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// StageName labels the generation stage in logs, reports and dead letters.
const StageName = "generation"

// Config controls the generation stage.
type Config struct {
	PrimaryPacing   time.Duration
	SecondaryPacing time.Duration
	Sleep           resilience.SleepFunc
	// Rand picks template variants. Nil uses a random seed.
	Rand *rand.Rand
	// Catalog defaults to DefaultCatalog.
	Catalog *Catalog
	// StrictContract rejects AI output that breaks the content rules.
	StrictContract bool
}

// Stage generates messages for ENRICHED leads.
type Stage struct {
	exec *fallback.Executor[model.Lead, *model.MessageBundle]
}

// New creates the generation stage. ai may be nil, in which case every lead
// gets template messages.
func New(ai llm.Completer, cfg Config) *Stage {
	r := cfg.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	exec := &fallback.Executor[model.Lead, *model.MessageBundle]{
		Stage: StageName,
		Secondary: func(l model.Lead) *model.MessageBundle {
			return catalog.TemplateBundle(l, r)
		},
		Backfill:        backfiller(cfg.StrictContract),
		PrimaryLabel:    model.SourceAI,
		SecondaryLabel:  model.SourceTemplate,
		PrimaryPacing:   cfg.PrimaryPacing,
		SecondaryPacing: cfg.SecondaryPacing,
		Sleep:           cfg.Sleep,
	}
	if ai != nil {
		exec.Primary = &aiWriter{ai: ai, sender: catalog.sender()}
	}
	return &Stage{exec: exec}
}

// Name implements pipeline.Processor.
func (s *Stage) Name() string { return StageName }

// From implements pipeline.Processor.
func (s *Stage) From() model.LeadStatus { return model.LeadStatusEnriched }

// Process computes the message bundle for one lead.
func (s *Stage) Process(ctx context.Context, lead model.Lead) (model.LeadUpdate, error) {
	res, err := s.exec.Run(ctx, lead)
	if err != nil {
		return model.LeadUpdate{}, err
	}

	msgs := res.Value
	if !msgs.Usable() {
		msgs = model.MinimalBundle()
	}

	zap.L().Debug("messages generated",
		zap.String("lead_id", lead.ID),
		zap.String("source", res.Source),
		zap.String("subject", msgs.EmailVariant1.Subject),
	)

	return model.LeadUpdate{
		Status:        model.LeadStatusMessaged,
		Messages:      msgs,
		MessageSource: model.Ptr(res.Source),
	}, nil
}

// backfiller accepts partial AI bundles and fills missing messages from the
// template bundle. The contract is checked on the AI text only.
func backfiller(strict bool) func(*model.MessageBundle, func() *model.MessageBundle) (*model.MessageBundle, error) {
	return func(got *model.MessageBundle, template func() *model.MessageBundle) (*model.MessageBundle, error) {
		if got.Empty() {
			return nil, eris.New("generate: AI response has no messages")
		}

		if violations := CheckContract(got); len(violations) > 0 {
			reasons := make([]string, len(violations))
			for i, v := range violations {
				reasons[i] = v.String()
			}
			if strict {
				return nil, eris.Errorf("generate: AI messages break the content contract: %s", strings.Join(reasons, "; "))
			}
			zap.L().Info("generation: AI messages break the content contract",
				zap.Strings("violations", reasons),
			)
		}

		out := *got
		if !out.EmailVariant1.Usable() {
			out.EmailVariant1 = template().EmailVariant1
		}
		if out.EmailVariant2 == nil || !out.EmailVariant2.Usable() {
			out.EmailVariant2 = template().EmailVariant2
		}
		if strings.TrimSpace(out.LinkedInVariant1) == "" {
			out.LinkedInVariant1 = template().LinkedInVariant1
		}
		if strings.TrimSpace(out.LinkedInVariant2) == "" {
			out.LinkedInVariant2 = template().LinkedInVariant2
		}
		return &out, nil
	}
}

var emailShape = []llm.Field{
	{Name: "subject", Kind: llm.KindString},
	{Name: "body", Kind: llm.KindString, Description: fmt.Sprintf("at most %d words, ending with %q", MaxEmailWords, CallToAction)},
}

var messageShape = llm.Shape{Fields: []llm.Field{
	{Name: "email_variant_1", Kind: llm.KindObject, Fields: emailShape},
	{Name: "email_variant_2", Kind: llm.KindObject, Fields: emailShape},
	{Name: "linkedin_variant_1", Kind: llm.KindString, Description: fmt.Sprintf("LinkedIn DM, at most %d words", MaxLinkedInWords)},
	{Name: "linkedin_variant_2", Kind: llm.KindString, Description: fmt.Sprintf("LinkedIn DM, at most %d words", MaxLinkedInWords)},
}}

type aiWriter struct {
	ai     llm.Completer
	sender string
}

func (w *aiWriter) Compute(ctx context.Context, l model.Lead) (*model.MessageBundle, error) {
	raw, err := w.ai.Complete(ctx, llm.Request{
		Stage:  StageName,
		Prompt: messagePrompt(l, w.sender),
		Shape:  messageShape,
	})
	if err != nil {
		return nil, err
	}
	var b model.MessageBundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, eris.Wrap(err, "generate: decode AI messages")
	}
	return &b, nil
}

func messagePrompt(l model.Lead, sender string) string {
	persona := l.Persona
	if persona == "" {
		persona = l.Role
	}
	var b strings.Builder
	b.WriteString("Act as an SDR. Create cold outreach messages for this lead.\n\n")
	fmt.Fprintf(&b, "Name: %s\nRole: %s\n", l.FullName, l.Role)
	fmt.Fprintf(&b, "Target persona: %s (adjust tone to suit this persona)\n", persona)
	fmt.Fprintf(&b, "Company: %s\nIndustry: %s\n", l.CompanyName, l.Industry)
	fmt.Fprintf(&b, "Insights/pain points: %s\n\n", strings.Join(l.PainPoints, ", "))
	b.WriteString("Write two email variants and two LinkedIn DM variants.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Reference the insights/pain points above.\n")
	fmt.Fprintf(&b, "- Emails: at most %d words.\n", MaxEmailWords)
	fmt.Fprintf(&b, "- LinkedIn DMs: at most %d words.\n", MaxLinkedInWords)
	fmt.Fprintf(&b, "- End every email with %q.\n", CallToAction)
	b.WriteString("- Do not invent facts about the company that are not listed here.\n")
	fmt.Fprintf(&b, "- Sign emails as %s.", sender)
	return b.String()
}
