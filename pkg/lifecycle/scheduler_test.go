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

func TestCheckAndScheduleBelowThresholdDoesNothing(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	// 4 proposals, only 2 rated: 50% < 75%.
	p1 := h.addProposal(t, s.Id, "a")
	p2 := h.addProposal(t, s.Id, "b")
	h.addProposal(t, s.Id, "c")
	h.addProposal(t, s.Id, "d")
	h.rate(t, s, p1, uuid.New(), 4)
	h.rate(t, s, p2, uuid.New(), 3)

	out, err := h.scheduler.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, out.Committed)
	assert.Nil(t, out.ScheduledAt)
	assert.Nil(t, h.reload(t, s.Id).Phase1TransitionScheduledAt)
}

func TestCheckAndScheduleCommitsAtThreshold(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	// 4 proposals, 3 rated (75%), every participant has rated.
	ps := []*entity.Proposal{
		h.addProposal(t, s.Id, "a"),
		h.addProposal(t, s.Id, "b"),
		h.addProposal(t, s.Id, "c"),
	}
	h.addProposal(t, s.Id, "d")
	for _, p := range ps {
		h.rate(t, s, p, uuid.New(), 4)
	}

	out, err := h.scheduler.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, out.Committed)
	require.NotNil(t, out.ScheduledAt)

	remaining := time.Until(*out.ScheduledAt)
	assert.InDelta(t, Phase1TransitionDelay.Seconds(), remaining.Seconds(), 5)
	assert.Equal(t, []string{events.TypeTransitionScheduled}, h.pub.types())
}

// 75% of proposals rated but only 60% of participants have rated: the second
// leg of the condition keeps the countdown uncommitted.
func TestCheckAndScheduleNeedsParticipantQuorumToo(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	p1 := h.addProposal(t, s.Id, "a")
	p2 := h.addProposal(t, s.Id, "b")
	h.rate(t, s, p1, uuid.New(), 5)
	h.rate(t, s, p2, uuid.New(), 4)
	// Participants who never rated: commenters join the universe without
	// contributing to the rater count.
	require.NoError(t, h.sessions.AddParticipant(ctx, &entity.SessionParticipant{SessionId: s.Id, UserId: uuid.New()}))
	require.NoError(t, h.sessions.AddParticipant(ctx, &entity.SessionParticipant{SessionId: s.Id, UserId: uuid.New()}))
	require.NoError(t, h.sessions.AddParticipant(ctx, &entity.SessionParticipant{SessionId: s.Id, UserId: uuid.New()}))

	// 2 raters of 5 participants.
	out, err := h.scheduler.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, out.Committed)
}

func TestCheckAndScheduleIdempotent(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	p1 := h.addProposal(t, s.Id, "a")
	p2 := h.addProposal(t, s.Id, "b")
	h.rate(t, s, p1, uuid.New(), 5)
	h.rate(t, s, p2, uuid.New(), 4)

	first, err := h.scheduler.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	require.True(t, first.Committed)

	second, err := h.scheduler.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, second.Committed)
	require.NotNil(t, second.ScheduledAt)
	assert.Equal(t, first.ScheduledAt.Unix(), second.ScheduledAt.Unix())
	// One event total, not one per call.
	assert.Len(t, h.pub.types(), 1)
}

func TestConcurrentSchedulingCommitsOnce(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	p1 := h.addProposal(t, s.Id, "a")
	p2 := h.addProposal(t, s.Id, "b")
	h.rate(t, s, p1, uuid.New(), 5)
	h.rate(t, s, p2, uuid.New(), 4)

	const callers = 16
	var wg sync.WaitGroup
	committed := make(chan bool, callers)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := h.scheduler.CheckAndSchedule(ctx, s.Id)
			if err != nil {
				errs <- err
				return
			}
			committed <- out.Committed
		}()
	}
	wg.Wait()
	close(committed)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	wins := 0
	for c := range committed {
		if c {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, []string{events.TypeTransitionScheduled}, h.pub.types())
}

func TestForceScheduleRequiresTwoProposals(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	h.addProposal(t, s.Id, "only one")

	_, err := h.scheduler.ForceSchedule(context.Background(), s.Id)
	assert.ErrorIs(t, err, ErrNotEnoughProposals)
}

func TestForceScheduleSkipsParticipationCheck(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)

	// Two unrated proposals: the normal condition is nowhere near met.
	h.addProposal(t, s.Id, "a")
	h.addProposal(t, s.Id, "b")

	out, err := h.scheduler.ForceSchedule(context.Background(), s.Id)
	require.NoError(t, err)
	assert.True(t, out.Committed)
}

func TestScheduleOutsidePhase1(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	h.enterPhase2(t, s, 3)
	ctx := context.Background()

	out, err := h.scheduler.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, out.Committed)
	assert.Nil(t, out.ScheduledAt)

	_, err = h.scheduler.ForceSchedule(ctx, s.Id)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestAdjustSurvivorCount(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		p := h.addProposal(t, s.Id, "p")
		h.rate(t, s, p, uuid.New(), 3)
	}

	// No countdown yet.
	_, err := h.scheduler.AdjustSurvivorCount(ctx, s.Id, 1)
	assert.ErrorIs(t, err, ErrCountdownNotActive)

	out, err := h.scheduler.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	require.True(t, out.Committed)

	// Curve gives 4 for n=10; +1 lands on 5.
	n, err := h.scheduler.AdjustSurvivorCount(ctx, s.Id, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// Deltas stack on the stored override.
	n, err = h.scheduler.AdjustSurvivorCount(ctx, s.Id, -2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Below the floor of 2.
	_, err = h.scheduler.AdjustSurvivorCount(ctx, s.Id, -2)
	assert.ErrorIs(t, err, ErrInvalidTopCount)

	// Above the pool size.
	_, err = h.scheduler.AdjustSurvivorCount(ctx, s.Id, 8)
	assert.ErrorIs(t, err, ErrInvalidTopCount)
}

// An adjustment that reads the session while the countdown is running but
// lands after the transition executor claimed it must not write anything:
// the override write is conditional on the countdown still existing, so a
// stale admin snapshot can never drag the session back to phase1.
func TestAdjustSurvivorCountLosesToTransition(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		p := h.addProposal(t, s.Id, "p")
		h.rate(t, s, p, uuid.New(), 3)
	}
	past := time.Now().Add(-time.Second).UTC()
	won, err := h.sessions.SchedulePhase1Transition(ctx, s.Id, past)
	require.NoError(t, err)
	require.True(t, won)

	// The admin's read sees an active countdown...
	require.NotNil(t, h.reload(t, s.Id).Phase1TransitionScheduledAt)

	// ...then the executor wins the claim and moves the session on.
	res, err := h.executor.ExecuteDue(ctx, s.Id)
	require.NoError(t, err)
	require.True(t, res.Executed)

	// The admin's write now matches no row.
	committed, err := h.sessions.SetCustomTopCount(ctx, s.Id, 4)
	require.NoError(t, err)
	assert.False(t, committed)

	fresh := h.reload(t, s.Id)
	assert.Equal(t, entity.SessionPhase2, fresh.Phase)
	assert.Nil(t, fresh.Phase1TransitionScheduledAt)
	assert.Nil(t, fresh.CustomTopCount)

	// And the engine-level call reports the countdown as gone.
	_, err = h.scheduler.AdjustSurvivorCount(ctx, s.Id, 1)
	assert.ErrorIs(t, err, ErrCountdownNotActive)
}

func TestTerminationCheckAndSchedule(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	survivors, universe := h.enterPhase2Universe(t, s, 4)
	ctx := context.Background()

	// Universe was frozen at 4 raters; 2 of them voting is 50%.
	h.vote(t, s, survivors[0], universe[0], true)
	h.vote(t, s, survivors[0], universe[1], true)
	out, err := h.terminator.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, out.Committed)

	// A third universe voter pushes past 75%.
	h.vote(t, s, survivors[1], universe[2], false)
	out, err = h.terminator.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, out.Committed)
	assert.Contains(t, h.pub.types(), events.TypeTerminationScheduled)
}

// Users who join during phase2 can vote, but the quorum denominator AND
// numerator are the universe frozen at phase1 exit: any number of late
// joiners alone must never trigger termination.
func TestTerminationQuorumIgnoresLateJoiners(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	survivors, universe := h.enterPhase2Universe(t, s, 4)
	ctx := context.Background()

	// Five brand-new voters, zero universe voters.
	for i := 0; i < 5; i++ {
		h.vote(t, s, survivors[0], uuid.New(), true)
	}
	out, err := h.terminator.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.False(t, out.Committed)
	assert.Nil(t, h.reload(t, s.Id).Phase2TerminationScheduledAt)

	// Universe voters still move it: 3 of 4 is 75%.
	h.vote(t, s, survivors[0], universe[0], true)
	h.vote(t, s, survivors[1], universe[1], false)
	h.vote(t, s, survivors[1], universe[2], true)
	out, err = h.terminator.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, out.Committed)
}

func TestTerminationScheduledByTimeLimit(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(t, false)
	h.enterPhase2(t, s, 3)
	ctx := context.Background()

	// Nobody voted, but phase2 started beyond the time limit.
	fresh := h.reload(t, s.Id)
	past := time.Now().Add(-73 * time.Hour).UTC()
	fresh.Phase2StartedAt = &past
	require.NoError(t, h.sessions.Update(ctx, fresh))

	out, err := h.terminator.CheckAndSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, out.Committed)
}
