package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Report summarizes one stage run.
type Report struct {
	Stage string `json:"stage"`
	// Eligible is the number of leads in the stage's input status.
	Eligible int `json:"eligible"`
	// Processed is the number of transitions committed.
	Processed int `json:"processed"`
	// Failed counts leads left unchanged because processing errored.
	Failed int `json:"failed"`
	// Skipped counts transitions dropped because the lead changed status
	// before the commit.
	Skipped int `json:"skipped"`
	// ByStatus and BySource count the computed outcomes.
	ByStatus map[model.LeadStatus]int `json:"by_status"`
	BySource map[string]int           `json:"by_source"`
	Duration time.Duration            `json:"duration_ns"`
}

func newReport(stage string) *Report {
	return &Report{
		Stage:    stage,
		ByStatus: make(map[model.LeadStatus]int),
		BySource: make(map[string]int),
	}
}

func (r *Report) record(u model.LeadUpdate) {
	r.ByStatus[u.Status]++
	switch {
	case u.MessageSource != nil:
		r.BySource[*u.MessageSource]++
	case u.EnrichmentSource != nil:
		r.BySource[*u.EnrichmentSource]++
	}
}

// FormatReport renders a run summary for logs and the CLI.
func FormatReport(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stage %s: %d eligible, %d processed", r.Stage, r.Eligible, r.Processed)
	if r.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", r.Failed)
	}
	if r.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", r.Skipped)
	}
	if r.Eligible == 0 {
		b.WriteString(" (nothing to do)")
	}
	b.WriteString("\n")

	for _, s := range model.AllStatuses {
		if n := r.ByStatus[s]; n > 0 {
			fmt.Fprintf(&b, "  -> %s: %d\n", s, n)
		}
	}

	sources := make([]string, 0, len(r.BySource))
	for s := range r.BySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Fprintf(&b, "  source %s: %d\n", s, r.BySource[s])
	}
	return b.String()
}
