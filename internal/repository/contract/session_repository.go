package contract

import (
	"context"
	"time"

	"agora-be/internal/entity"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
)

// SessionRepository persists sessions and implements the conditional writes
// the lifecycle engine relies on. Every Schedule*/Claim* method is a single
// atomic compare-and-set against the session row; the boolean result reports
// whether this caller won the write. There is no other synchronization
// primitive in the system.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	Update(ctx context.Context, session *entity.Session) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SchedulePhase1Transition sets the phase1 transition timestamp iff the
	// session is active, in phase1 and no timestamp is set yet.
	SchedulePhase1Transition(ctx context.Context, sessionId uuid.UUID, at time.Time) (bool, error)

	// ClaimPhase1Transition clears a due phase1 timestamp iff the session is
	// still active and in phase1. The single winner proceeds to execute the
	// transition.
	ClaimPhase1Transition(ctx context.Context, sessionId uuid.UUID, now time.Time) (bool, error)

	// ScheduleTermination / ClaimTermination are the phase2 analogues.
	ScheduleTermination(ctx context.Context, sessionId uuid.UUID, at time.Time) (bool, error)
	ClaimTermination(ctx context.Context, sessionId uuid.UUID, now time.Time) (bool, error)

	// SetCustomTopCount persists the admin cutoff override iff the phase1
	// countdown is still running. Touches only that column, so a concurrent
	// transition can never be overwritten by a stale admin snapshot.
	SetCustomTopCount(ctx context.Context, sessionId uuid.UUID, topCount int) (bool, error)

	// ActivateTiebreaker stores the narrowed candidate set and schedules the
	// supplementary round. ClaimTiebreakerRound clears a due round timestamp,
	// leaving the active flag set so the closer sees the narrowed set.
	ActivateTiebreaker(ctx context.Context, sessionId uuid.UUID, candidateIds []uuid.UUID, at time.Time) error
	ClaimTiebreakerRound(ctx context.Context, sessionId uuid.UUID, now time.Time) (bool, error)

	// AddParticipant registers a qualifying action; duplicate inserts are
	// silently ignored (membership is add-only).
	AddParticipant(ctx context.Context, participant *entity.SessionParticipant) error

	// MarkPhase1Universe stamps every current participant as a member of the
	// phase2 voting-quorum universe and returns how many rows were stamped.
	// Called exactly once, by the transition claim winner.
	MarkPhase1Universe(ctx context.Context, sessionId uuid.UUID) (int64, error)
	FindParticipants(ctx context.Context, sessionId uuid.UUID) ([]*entity.SessionParticipant, error)
	CountParticipants(ctx context.Context, sessionId uuid.UUID) (int64, error)
}
