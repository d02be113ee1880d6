package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/store/mocks"
)

var newFilter = store.LeadFilter{Status: model.LeadStatusNew}

func TestDriver_NoEligibleLeads(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return([]model.Lead{}, nil)

	r, err := NewDriver(st, 10).Run(context.Background(), &stubProcessor{})
	require.NoError(t, err)
	assert.Equal(t, "stub", r.Stage)
	assert.Zero(t, r.Eligible)
	assert.Zero(t, r.Processed)
	st.AssertNotCalled(t, "ApplyTransitions", mock.Anything, mock.Anything)
}

func TestDriver_Batches(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b", "c", "d", "e"), nil)
	st.On("ApplyTransitions", mock.Anything, idsAre("a", "b")).Return(2, nil).Once()
	st.On("ApplyTransitions", mock.Anything, idsAre("c", "d")).Return(2, nil).Once()
	st.On("ApplyTransitions", mock.Anything, idsAre("e")).Return(1, nil).Once()

	r, err := NewDriver(st, 2).Run(context.Background(), &stubProcessor{})
	require.NoError(t, err)
	st.AssertExpectations(t)

	assert.Equal(t, 5, r.Eligible)
	assert.Equal(t, 5, r.Processed)
	assert.Equal(t, 5, r.ByStatus[model.LeadStatusEnriched])
	assert.Equal(t, 5, r.BySource[model.SourceOffline])
}

func TestDriver_DefaultBatchIsPerRecord(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b"), nil)
	st.On("ApplyTransitions", mock.Anything, mock.Anything).Return(1, nil)

	_, err := NewDriver(st, 0).Run(context.Background(), &stubProcessor{})
	require.NoError(t, err)
	st.AssertNumberOfCalls(t, "ApplyTransitions", 2)
}

func TestDriver_FailedLeadIsIsolated(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b", "c"), nil)
	st.On("ApplyTransitions", mock.Anything, idsAre("a", "c")).Return(2, nil).Once()

	p := &stubProcessor{errs: map[string]error{"b": errors.New("bad row")}}
	r, err := NewDriver(st, 5).Run(context.Background(), p)
	require.NoError(t, err)
	st.AssertExpectations(t)

	assert.Equal(t, []string{"a", "b", "c"}, p.seen)
	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, 1, r.Failed)
}

func TestDriver_ExhaustedLeadGetsDeadLetter(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ApplyTransitions", mock.Anything, mock.MatchedBy(func(ts []model.Transition) bool {
		if len(ts) != 1 || ts[0].DeadLetter == nil {
			return false
		}
		dl := ts[0].DeadLetter
		return ts[0].Update.Status == model.LeadStatusFailed &&
			dl.LeadID == "a" && dl.Stage == "stub" && dl.Attempts == 3 &&
			dl.Error == "connection refused" && dl.ErrorType == resilience.ErrorTypeTransient
	})).Return(1, nil).Once()

	// A FAILED update from NEW is not a forward step, so script one from a
	// stage whose input is MESSAGED.
	p := &messagedStub{stubProcessor{
		updates: map[string]model.LeadUpdate{"a": {Status: model.LeadStatusFailed}},
		errs:    map[string]error{"a": &resilience.ExhaustedError{Attempts: 3, Err: errors.New("connection refused")}},
	}}
	st.On("ListLeads", mock.Anything, store.LeadFilter{Status: model.LeadStatusMessaged}).Return(newLeads("a"), nil)

	r, err := NewDriver(st, 1).Run(context.Background(), p)
	require.NoError(t, err)
	st.AssertExpectations(t)
	assert.Equal(t, 1, r.ByStatus[model.LeadStatusFailed])
	assert.Zero(t, r.Failed)
}

type messagedStub struct{ stubProcessor }

type effectStub struct {
	stubProcessor
	external bool
}

func (e *effectStub) HasExternalEffects() bool { return e.external }

func TestDriver_ExternalEffectsCommitPerRecord(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b", "c"), nil)
	st.On("ApplyTransitions", mock.Anything, idsAre("a")).Return(1, nil).Once()
	st.On("ApplyTransitions", mock.Anything, idsAre("b")).Return(1, nil).Once()
	st.On("ApplyTransitions", mock.Anything, idsAre("c")).Return(1, nil).Once()

	r, err := NewDriver(st, 10).Run(context.Background(), &effectStub{external: true})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Processed)
}

func TestDriver_NoExternalEffectsKeepsBatchSize(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b", "c"), nil)
	st.On("ApplyTransitions", mock.Anything, idsAre("a", "b", "c")).Return(3, nil).Once()

	r, err := NewDriver(st, 10).Run(context.Background(), &effectStub{external: false})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Processed)
}

func (m *messagedStub) From() model.LeadStatus { return model.LeadStatusMessaged }

func TestDriver_InvalidTransitionIsIsolated(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b"), nil)
	st.On("ApplyTransitions", mock.Anything, idsAre("b")).Return(1, nil).Once()

	p := &stubProcessor{updates: map[string]model.LeadUpdate{"a": {Status: model.LeadStatusSent}}}
	r, err := NewDriver(st, 5).Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.Processed)
}

func TestDriver_SkippedTransitions(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b", "c"), nil)
	st.On("ApplyTransitions", mock.Anything, idsAre("a", "b", "c")).Return(2, nil).Once()

	r, err := NewDriver(st, 3).Run(context.Background(), &stubProcessor{})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, 1, r.Skipped)
}

func TestDriver_ListError(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(nil, errors.New("disk I/O error"))

	_, err := NewDriver(st, 1).Run(context.Background(), &stubProcessor{})
	assert.ErrorContains(t, err, "pipeline: list NEW leads")
}

func TestDriver_CommitErrorAborts(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b", "c"), nil)
	st.On("ApplyTransitions", mock.Anything, idsAre("a")).Return(1, nil).Once()
	st.On("ApplyTransitions", mock.Anything, idsAre("b")).Return(0, errors.New("database is locked")).Once()

	p := &stubProcessor{}
	r, err := NewDriver(st, 1).Run(context.Background(), p)
	assert.ErrorContains(t, err, "pipeline: commit stub batch")
	assert.Equal(t, 1, r.Processed)
	assert.Equal(t, []string{"a", "b"}, p.seen, "no lead is processed after a store error")
}

func TestDriver_CancellationCommitsPendingWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(newLeads("a", "b", "c"), nil)
	st.On("ApplyTransitions", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), idsAre("a", "b")).Return(2, nil).Once()

	p := &stubProcessor{onLead: func(l model.Lead) {
		if l.ID == "b" {
			cancel()
		}
	}}
	r, err := NewDriver(st, 10).Run(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
	st.AssertExpectations(t)
	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, []string{"a", "b"}, p.seen)
}

func TestDriver_RunAllStopsOnError(t *testing.T) {
	st := &mocks.MockStore{}
	st.On("ListLeads", mock.Anything, newFilter).Return(nil, errors.New("boom")).Once()

	reports, err := NewDriver(st, 1).RunAll(context.Background(), &stubProcessor{}, &messagedStub{})
	require.Error(t, err)
	assert.Len(t, reports, 1)
}

func TestFormatReport(t *testing.T) {
	r := newReport("enrichment")
	r.Eligible, r.Processed, r.Failed, r.Skipped = 3, 2, 1, 0
	r.record(model.LeadUpdate{Status: model.LeadStatusEnriched, EnrichmentSource: model.Ptr(model.SourceAI)})
	r.record(model.LeadUpdate{Status: model.LeadStatusEnriched, EnrichmentSource: model.Ptr(model.SourceOffline)})

	assert.Equal(t, "Stage enrichment: 3 eligible, 2 processed, 1 failed\n"+
		"  -> ENRICHED: 2\n"+
		"  source AI: 1\n"+
		"  source OFFLINE: 1\n", FormatReport(r))

	assert.Equal(t, "Stage delivery: 0 eligible, 0 processed (nothing to do)\n", FormatReport(newReport("delivery")))
}
