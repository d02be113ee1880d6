package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/delivery"
	deliverymocks "github.com/sells-group/outreach-cli/internal/delivery/mocks"
	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func offlineStages(seed uint64, deliveryMode string, tr delivery.Transport) []Processor {
	r := NewRand(seed)
	return []Processor{
		enrich.New(nil, enrich.Config{Mode: "offline", Sleep: noSleep, Rand: r}),
		generate.New(nil, generate.Config{Sleep: noSleep, Rand: r}),
		delivery.New(tr, nil, nil, delivery.Config{
			Mode:         deliveryMode,
			MaxRetries:   2,
			RetryBackoff: time.Second,
			Sleep:        noSleep,
		}),
	}
}

func TestEndToEnd_OfflineDryRun(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	lead := &model.Lead{FullName: "Jane Doe", Email: "jane@acme.test", CompanyName: "Acme", Role: "CTO", Industry: "Technology"}
	require.NoError(t, st.InsertLead(ctx, lead))

	d := NewDriver(st, 1)
	reports, err := d.RunAll(ctx, offlineStages(42, "dry_run", nil)...)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.Equal(t, 1, r.Processed, r.Stage)
	}
	assert.Equal(t, 1, reports[0].BySource[model.SourceOffline])
	assert.Equal(t, 1, reports[1].BySource[model.SourceTemplate])
	assert.Equal(t, 1, reports[2].ByStatus[model.LeadStatusSentDryRun])

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusSentDryRun, got.Status)
	assert.Equal(t, enrich.PersonaTechnical, got.Persona)
	assert.Equal(t, []string{"Technical debt slowing down release cycles", "High cloud infrastructure costs"}, got.PainPoints)
	assert.Equal(t, model.SourceOffline, got.EnrichmentSource)
	assert.GreaterOrEqual(t, got.ConfidenceScore, 75)
	assert.LessOrEqual(t, got.ConfidenceScore, 98)
	assert.Contains(t, model.CompanySizes, got.CompanySize)

	require.NotNil(t, got.Messages)
	assert.Contains(t, []string{"Accelerating Acme's deployment cycles", "DevOps bottlenecks at Acme"}, got.Messages.EmailVariant1.Subject)
	assert.NotEmpty(t, got.Messages.EmailVariant1.Body)
	assert.NotEmpty(t, got.Messages.LinkedInVariant1)
	assert.Equal(t, model.SourceTemplate, got.MessageSource)

	// Nothing is left to do on a second run.
	reports, err = d.RunAll(ctx, offlineStages(42, "dry_run", nil)...)
	require.NoError(t, err)
	for _, r := range reports {
		assert.Zero(t, r.Eligible, r.Stage)
	}
}

func TestEndToEnd_SeedReproducesOutput(t *testing.T) {
	ctx := context.Background()
	run := func() *model.Lead {
		st := newSQLite(t)
		l := &model.Lead{FullName: "Jane Doe", CompanyName: "Acme", Role: "CTO", Industry: "Technology"}
		require.NoError(t, st.InsertLead(ctx, l))
		_, err := NewDriver(st, 1).RunAll(ctx, offlineStages(7, "dry_run", nil)[:2]...)
		require.NoError(t, err)
		got, err := st.GetLead(ctx, l.ID)
		require.NoError(t, err)
		return got
	}
	a, b := run(), run()
	assert.Equal(t, a.CompanySize, b.CompanySize)
	assert.Equal(t, a.ConfidenceScore, b.ConfidenceScore)
	assert.Equal(t, a.Messages, b.Messages)
}

func TestEndToEnd_LiveFailureDeadLettersAndRequeue(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	ok := &model.Lead{FullName: "Ana Lima", Email: "ana@globex.test", CompanyName: "Globex", Role: "CFO", Industry: "Finance"}
	bad := &model.Lead{FullName: "Bo Chen", Email: "bo@initech.test", CompanyName: "Initech", Role: "VP Sales", Industry: "Retail"}
	require.NoError(t, st.InsertLead(ctx, ok))
	require.NoError(t, st.InsertLead(ctx, bad))

	tr := deliverymocks.NewMockTransport(t)
	tr.On("Send", mock.Anything, "ana@globex.test", mock.Anything, mock.Anything).Return(nil)
	tr.On("Send", mock.Anything, "bo@initech.test", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	reports, err := NewDriver(st, 2).RunAll(ctx, offlineStages(1, "live", tr)...)
	require.NoError(t, err)
	assert.Equal(t, 1, reports[2].ByStatus[model.LeadStatusSent])
	assert.Equal(t, 1, reports[2].ByStatus[model.LeadStatusFailed])
	tr.AssertNumberOfCalls(t, "Send", 4)

	counts, err := st.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.LeadStatusSent])
	assert.Equal(t, 1, counts[model.LeadStatusFailed])

	dls, err := st.ListDeadLetters(ctx, 0)
	require.NoError(t, err)
	require.Len(t, dls, 1)
	assert.Equal(t, bad.ID, dls[0].LeadID)
	assert.Equal(t, delivery.StageName, dls[0].Stage)
	assert.Equal(t, 3, dls[0].Attempts)

	n, err := st.RequeueFailed(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := st.GetLead(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusMessaged, got.Status)
}
