package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/outreach-cli/internal/model"
)

// stubProcessor moves NEW leads to ENRICHED unless an error is scripted for
// the lead id.
type stubProcessor struct {
	errs    map[string]error
	updates map[string]model.LeadUpdate
	onLead  func(model.Lead)
	seen    []string
}

func (s *stubProcessor) Name() string           { return "stub" }
func (s *stubProcessor) From() model.LeadStatus { return model.LeadStatusNew }

func (s *stubProcessor) Process(_ context.Context, l model.Lead) (model.LeadUpdate, error) {
	s.seen = append(s.seen, l.ID)
	if s.onLead != nil {
		s.onLead(l)
	}
	if u, ok := s.updates[l.ID]; ok {
		return u, s.errs[l.ID]
	}
	if err := s.errs[l.ID]; err != nil {
		return model.LeadUpdate{}, err
	}
	return model.LeadUpdate{Status: model.LeadStatusEnriched, EnrichmentSource: model.Ptr(model.SourceOffline)}, nil
}

func newLeads(ids ...string) []model.Lead {
	out := make([]model.Lead, len(ids))
	for i, id := range ids {
		out[i] = model.Lead{ID: id, FullName: "Lead " + id, Status: model.LeadStatusNew}
	}
	return out
}

func batchIDs(ts []model.Transition) []string {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.LeadID
	}
	return ids
}

func idsAre(ids ...string) any {
	return mock.MatchedBy(func(ts []model.Transition) bool {
		got := batchIDs(ts)
		if len(got) != len(ids) {
			return false
		}
		for i := range ids {
			if got[i] != ids[i] {
				return false
			}
		}
		return true
	})
}
