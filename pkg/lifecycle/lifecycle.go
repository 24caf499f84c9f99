// Package lifecycle implements the session phase engine: threshold-based
// auto-scheduling, race-free claim-and-execute transitions, termination and
// the winner-selection rules applied when a session closes.
//
// There is no background scheduler. Every operation here runs synchronously
// inside client-triggered requests, so every check-and-act is written to be
// safe under arbitrary concurrent execution. The only synchronization
// primitive is the conditional UPDATE behind the SessionRepository
// Schedule*/Claim* methods.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"agora-be/pkg/events"
)

// Product-level countdown constants. Fixed, not derived.
const (
	Phase1TransitionDelay = 90 * time.Second
	TerminationDelay      = 60 * time.Second
	TiebreakerRoundDelay  = 30 * time.Second
)

// ParticipationThreshold is the fraction of proposals/participants that must
// have acted before a phase exit condition is met.
const ParticipationThreshold = 0.75

// MinActiveProposals is the smallest pool a session may transition with.
const MinActiveProposals = 2

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrWrongPhase         = errors.New("session is not in the expected phase")
	ErrNotEnoughProposals = errors.New("session needs at least 2 active proposals")
	ErrInvalidTopCount    = errors.New("survivor count outside valid range")
	ErrCountdownNotActive = errors.New("no transition countdown is active")

	// ErrDegradedSession marks the post-claim inconsistency: the claim
	// succeeded but execution preconditions no longer hold. The schedule
	// flag is already cleared, so no automatic retry will occur; the
	// session needs administrator inspection.
	ErrDegradedSession = errors.New("session is in a degraded state and requires administrator intervention")
)

// timeNow abstracts the clock so tests can drive countdowns without sleeping.
type timeNow func() time.Time

// EventPublisher is the outbound notification collaborator. Delivery is
// best-effort; publish failures must never fail an engine operation.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
