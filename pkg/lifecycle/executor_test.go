package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"agora-be/internal/entity"
	"agora-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteDueNotYetDue(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	h.addProposal(t, s.Id, "a")
	h.addProposal(t, s.Id, "b")
	future := time.Now().Add(time.Minute).UTC()
	won, err := h.sessions.SchedulePhase1Transition(ctx, s.Id, future)
	require.NoError(t, err)
	require.True(t, won)

	res, err := h.executor.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, res.Executed)
	assert.Equal(t, entity.SessionPhase1, h.reload(t, s.Id).Phase)
}

func TestExecuteDuePromotesAndArchives(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	// 10 proposals, distinct rating levels; cutoff keeps 4.
	proposals := make([]*entity.Proposal, 10)
	for i := range proposals {
		proposals[i] = h.addProposal(t, s.Id, "p")
	}
	for i, p := range proposals {
		// Two raters each so averages separate cleanly: 5.0, 4.5, 4.0 ...
		h.rate(t, s, p, uuid.New(), 5)
		h.rate(t, s, p, uuid.New(), max(5-i, 1))
	}

	past := time.Now().Add(-time.Second).UTC()
	won, err := h.sessions.SchedulePhase1Transition(ctx, s.Id, past)
	require.NoError(t, err)
	require.True(t, won)

	res, err := h.executor.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.Equal(t, 4, res.TopCount)
	assert.Equal(t, 4, res.PromotedCount)
	assert.Equal(t, 6, res.ArchivedCount)

	fresh := h.reload(t, s.Id)
	assert.Equal(t, entity.SessionPhase2, fresh.Phase)
	assert.Nil(t, fresh.Phase1TransitionScheduledAt)
	require.NotNil(t, fresh.Phase2StartedAt)
	// 20 raters registered as participants before the freeze.
	assert.Equal(t, 20, fresh.Phase1ParticipantCount)

	survivors, err := h.proposals.FindAll(ctx,
		bySessionID(s.Id), withStatus(entity.ProposalStatusTop3), byRatingRank())
	require.NoError(t, err)
	require.Len(t, survivors, 4)
	// Highest average survives at the top.
	assert.Equal(t, proposals[0].Id, survivors[0].Id)

	assert.Contains(t, h.pub.types(), events.TypePhaseChanged)
}

func TestExecuteDueHonorsCustomTopCount(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		p := h.addProposal(t, s.Id, "p")
		h.rate(t, s, p, uuid.New(), max(5-i, 1))
	}
	two := 2
	fresh := h.reload(t, s.Id)
	fresh.CustomTopCount = &two
	require.NoError(t, h.sessions.Update(ctx, fresh))

	past := time.Now().Add(-time.Second).UTC()
	_, err := h.sessions.SchedulePhase1Transition(ctx, s.Id, past)
	require.NoError(t, err)

	res, err := h.executor.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.Equal(t, 2, res.TopCount)
}

// The proposal pool shrank below two after scheduling: validation fires
// before the claim, so the schedule flag survives for inspection instead of
// being burned on a doomed execution.
func TestExecuteDueValidatesBeforeClaiming(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	p1 := h.addProposal(t, s.Id, "a")
	h.addProposal(t, s.Id, "b")
	past := time.Now().Add(-time.Second).UTC()
	won, err := h.sessions.SchedulePhase1Transition(ctx, s.Id, past)
	require.NoError(t, err)
	require.True(t, won)

	p1.Status = entity.ProposalStatusArchived
	require.NoError(t, h.proposals.Update(ctx, p1))

	_, err = h.executor.ExecuteDue(ctx, s.Id)
	assert.ErrorIs(t, err, ErrNotEnoughProposals)
	assert.NotNil(t, h.reload(t, s.Id).Phase1TransitionScheduledAt)
}

func TestConcurrentExecuteDueRunsOnce(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := h.addProposal(t, s.Id, "p")
		h.rate(t, s, p, uuid.New(), max(5-i, 1))
	}
	past := time.Now().Add(-time.Second).UTC()
	won, err := h.sessions.SchedulePhase1Transition(ctx, s.Id, past)
	require.NoError(t, err)
	require.True(t, won)

	const callers = 16
	var wg sync.WaitGroup
	executed := make(chan bool, callers)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.executor.ExecuteDue(ctx, s.Id)
			if err != nil {
				errs <- err
				return
			}
			executed <- res.Executed
		}()
	}
	wg.Wait()
	close(executed)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	wins := 0
	for e := range executed {
		if e {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	// Exactly one PhaseChanged despite 16 racers.
	changed := 0
	for _, typ := range h.pub.types() {
		if typ == events.TypePhaseChanged {
			changed++
		}
	}
	assert.Equal(t, 1, changed)
	assert.Equal(t, entity.SessionPhase2, h.reload(t, s.Id).Phase)
}

func TestExecuteDueAfterClose(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	h.addProposal(t, s.Id, "a")
	h.addProposal(t, s.Id, "b")
	past := time.Now().Add(-time.Second).UTC()
	_, err := h.sessions.SchedulePhase1Transition(ctx, s.Id, past)
	require.NoError(t, err)

	fresh := h.reload(t, s.Id)
	fresh.Status = entity.SessionStatusClosed
	fresh.Phase = entity.SessionPhaseClosed
	require.NoError(t, h.sessions.Update(ctx, fresh))

	res, err := h.executor.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, res.Executed)
}
