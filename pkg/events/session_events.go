package events

import (
	"time"

	"github.com/google/uuid"
)

// The closed set of session lifecycle event codes. Payloads carry only the
// fields listed here; consumers must tolerate missed events and re-derive
// state from the session itself (delivery is best-effort).
const (
	TypeTransitionScheduled  = "SESSION_TRANSITION_SCHEDULED"
	TypeTerminationScheduled = "SESSION_TERMINATION_SCHEDULED"
	TypePhaseChanged         = "SESSION_PHASE_CHANGED"
	TypeTiebreakerStarted    = "SESSION_TIEBREAKER_STARTED"
	TypeSessionClosed        = "SESSION_CLOSED"
)

// TransitionScheduled is emitted once when a phase1->phase2 countdown commits.
type TransitionScheduled struct {
	SessionId   uuid.UUID
	ScheduledAt time.Time
	OccurredAt  time.Time
}

func (e TransitionScheduled) EventType() string { return TypeTransitionScheduled }

func (e TransitionScheduled) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":   e.SessionId.String(),
		"scheduled_at": e.ScheduledAt.Format(time.RFC3339),
	}
}

func (e TransitionScheduled) Timestamp() time.Time { return e.OccurredAt }

// TerminationScheduled is emitted once when a phase2->closed countdown commits.
type TerminationScheduled struct {
	SessionId   uuid.UUID
	ScheduledAt time.Time
	OccurredAt  time.Time
}

func (e TerminationScheduled) EventType() string { return TypeTerminationScheduled }

func (e TerminationScheduled) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":   e.SessionId.String(),
		"scheduled_at": e.ScheduledAt.Format(time.RFC3339),
	}
}

func (e TerminationScheduled) Timestamp() time.Time { return e.OccurredAt }

// PhaseChanged is emitted by the single caller that wins a transition claim.
type PhaseChanged struct {
	SessionId  uuid.UUID
	FromPhase  string
	ToPhase    string
	OccurredAt time.Time
}

func (e PhaseChanged) EventType() string { return TypePhaseChanged }

func (e PhaseChanged) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id": e.SessionId.String(),
		"from_phase": e.FromPhase,
		"to_phase":   e.ToPhase,
	}
}

func (e PhaseChanged) Timestamp() time.Time { return e.OccurredAt }

// TiebreakerStarted is emitted when a supplementary voting round begins.
type TiebreakerStarted struct {
	SessionId    uuid.UUID
	CandidateIds []uuid.UUID
	ScheduledAt  time.Time
	OccurredAt   time.Time
}

func (e TiebreakerStarted) EventType() string { return TypeTiebreakerStarted }

func (e TiebreakerStarted) Payload() map[string]interface{} {
	ids := make([]string, len(e.CandidateIds))
	for i, id := range e.CandidateIds {
		ids[i] = id.String()
	}
	return map[string]interface{}{
		"session_id":    e.SessionId.String(),
		"candidate_ids": ids,
		"scheduled_at":  e.ScheduledAt.Format(time.RFC3339),
	}
}

func (e TiebreakerStarted) Timestamp() time.Time { return e.OccurredAt }

// SessionClosed is emitted once when a session reaches its terminal state.
type SessionClosed struct {
	SessionId   uuid.UUID
	WinnerCount int
	OccurredAt  time.Time
}

func (e SessionClosed) EventType() string { return TypeSessionClosed }

func (e SessionClosed) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":   e.SessionId.String(),
		"winner_count": e.WinnerCount,
	}
}

func (e SessionClosed) Timestamp() time.Time { return e.OccurredAt }
