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

func (h *harness) scheduleDueTermination(t *testing.T, sessionId uuid.UUID) {
	t.Helper()
	past := time.Now().Add(-time.Second).UTC()
	won, err := h.sessions.ScheduleTermination(context.Background(), sessionId, past)
	require.NoError(t, err)
	require.True(t, won)
}

func TestMajorityModeEveryYesMajorityWins(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	survivors := h.enterPhase2(t, s, 5)
	require.Len(t, survivors, 3)
	ctx := context.Background()

	// survivors[0]: 2 yes / 1 no. survivors[1]: 1 yes / 2 no. survivors[2]: 2 yes / 0 no.
	h.vote(t, s, survivors[0], uuid.New(), true)
	h.vote(t, s, survivors[0], uuid.New(), true)
	h.vote(t, s, survivors[0], uuid.New(), false)
	h.vote(t, s, survivors[1], uuid.New(), true)
	h.vote(t, s, survivors[1], uuid.New(), false)
	h.vote(t, s, survivors[1], uuid.New(), false)
	h.vote(t, s, survivors[2], uuid.New(), true)
	h.vote(t, s, survivors[2], uuid.New(), true)

	h.scheduleDueTermination(t, s.Id)
	res, err := h.termExec.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.False(t, res.TiebreakerStarted)
	require.Len(t, res.Winners, 2)

	fresh := h.reload(t, s.Id)
	assert.Equal(t, entity.SessionStatusClosed, fresh.Status)
	assert.Equal(t, entity.SessionPhaseClosed, fresh.Phase)
	require.NotNil(t, fresh.EndedAt)

	// Snapshots carry the final tallies.
	tops, err := h.tops.FindAll(ctx, bySessionID(s.Id))
	require.NoError(t, err)
	require.Len(t, tops, 2)

	// Every live proposal ends archived; snapshots are the record.
	remaining, err := h.proposals.FindAll(ctx, bySessionID(s.Id), withStatus(entity.ProposalStatusTop3))
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.Contains(t, h.pub.types(), events.TypeSessionClosed)
}

func TestMajorityModeZeroWinnersIsValid(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	survivors := h.enterPhase2(t, s, 3)
	ctx := context.Background()

	for _, p := range survivors {
		h.vote(t, s, p, uuid.New(), false)
	}

	h.scheduleDueTermination(t, s.Id)
	res, err := h.termExec.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.Empty(t, res.Winners)
	assert.Equal(t, entity.SessionStatusClosed, h.reload(t, s.Id).Status)
}

func TestSingleResultModePicksNetBest(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, true)
	survivors := h.enterPhase2(t, s, 3)
	ctx := context.Background()

	// Net results: +2, +1.
	h.vote(t, s, survivors[0], uuid.New(), true)
	h.vote(t, s, survivors[0], uuid.New(), true)
	h.vote(t, s, survivors[1], uuid.New(), true)

	h.scheduleDueTermination(t, s.Id)
	res, err := h.termExec.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	require.Len(t, res.Winners, 1)
	assert.Equal(t, survivors[0].Id, res.Winners[0].ProposalId)
}

func TestSingleResultModeTieStartsOneSupplementaryRound(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, true)
	survivors := h.enterPhase2(t, s, 4)
	require.Len(t, survivors, 2)
	ctx := context.Background()

	// Both survivors net +1: a fresh tie.
	h.vote(t, s, survivors[0], uuid.New(), true)
	h.vote(t, s, survivors[1], uuid.New(), true)

	h.scheduleDueTermination(t, s.Id)
	res, err := h.termExec.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.True(t, res.TiebreakerStarted)
	assert.Empty(t, res.Winners)

	fresh := h.reload(t, s.Id)
	assert.True(t, fresh.IsActive())
	assert.True(t, fresh.TiebreakerActive)
	assert.Len(t, fresh.TiebreakerCandidateIds, 2)
	require.NotNil(t, fresh.TiebreakerScheduledAt)
	assert.Contains(t, h.pub.types(), events.TypeTiebreakerStarted)

	// A revised vote breaks the tie; the due round closes the session.
	h.vote(t, s, survivors[0], uuid.New(), true)
	past := time.Now().Add(-time.Second).UTC()
	fresh.TiebreakerScheduledAt = &past
	require.NoError(t, h.sessions.Update(ctx, fresh))

	res, err = h.termExec.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.False(t, res.TiebreakerStarted)
	require.Len(t, res.Winners, 1)
	assert.Equal(t, survivors[0].Id, res.Winners[0].ProposalId)
	assert.Equal(t, entity.SessionStatusClosed, h.reload(t, s.Id).Status)
}

// A tie that persists through the supplementary round does not loop: the
// whole tied set closes as co-winners.
func TestPersistentTieClosesWithCoWinners(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, true)
	survivors := h.enterPhase2(t, s, 4)
	ctx := context.Background()

	h.vote(t, s, survivors[0], uuid.New(), true)
	h.vote(t, s, survivors[1], uuid.New(), true)

	h.scheduleDueTermination(t, s.Id)
	res, err := h.termExec.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	require.True(t, res.TiebreakerStarted)

	// Nobody revises; force the round due.
	fresh := h.reload(t, s.Id)
	past := time.Now().Add(-time.Second).UTC()
	fresh.TiebreakerScheduledAt = &past
	require.NoError(t, h.sessions.Update(ctx, fresh))

	res, err = h.termExec.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.False(t, res.TiebreakerStarted)
	assert.Len(t, res.Winners, 2)
	assert.Equal(t, entity.SessionStatusClosed, h.reload(t, s.Id).Status)
}

func TestConcurrentTerminationClosesOnce(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	survivors := h.enterPhase2(t, s, 3)
	ctx := context.Background()

	h.vote(t, s, survivors[0], uuid.New(), true)
	h.scheduleDueTermination(t, s.Id)

	const callers = 16
	var wg sync.WaitGroup
	executed := make(chan bool, callers)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.termExec.ExecuteDue(ctx, s.Id)
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

	// One snapshot for the single yes-majority winner, not one per racer.
	tops, err := h.tops.FindAll(ctx, bySessionID(s.Id))
	require.NoError(t, err)
	assert.Len(t, tops, 1)
}

func TestCloseIsIdempotentOnClosedSession(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	survivors := h.enterPhase2(t, s, 3)
	ctx := context.Background()

	h.vote(t, s, survivors[0], uuid.New(), true)
	h.scheduleDueTermination(t, s.Id)
	_, err := h.termExec.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)

	res, err := h.closer.Close(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, res.Closed)

	tops, err := h.tops.FindAll(ctx, bySessionID(s.Id))
	require.NoError(t, err)
	assert.Len(t, tops, 1)
}
