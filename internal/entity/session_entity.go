package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session phases. A session only ever moves forward:
// phase1 -> phase2 -> closed, or phase1/phase2 -> archived for the
// ranking variant. Never backward.
const (
	SessionPhase1        = "phase1"
	SessionPhase2        = "phase2"
	SessionPhaseClosed   = "closed"
	SessionPhaseArchived = "archived"
)

const (
	SessionStatusActive   = "active"
	SessionStatusClosed   = "closed"
	SessionStatusArchived = "archived"
)

// Session variants. Ranking sessions skip phase2 entirely and are closed by
// explicit archival instead of a vote majority.
const (
	SessionVariantStandard = "standard"
	SessionVariantRanking  = "ranking"
)

type Session struct {
	Id          uuid.UUID
	Title       string
	Description string
	Phase       string
	Status      string
	Variant     string

	// SingleResultMode: only the net-best proposal(s) win, with tie-break
	// support. Otherwise every yes-majority proposal wins independently.
	SingleResultMode bool

	// CustomTopCount overrides the survivor-cutoff curve when set.
	// Range-validated at write time against [2, activeProposals].
	CustomTopCount *int

	// Scheduling metadata. A non-nil timestamp means the transition has been
	// committed; clearing it is the atomic claim.
	Phase1TransitionScheduledAt  *time.Time
	Phase2StartedAt              *time.Time
	Phase2TerminationScheduledAt *time.Time

	// Phase1ParticipantCount freezes the phase2 participant universe at
	// phase-1 exit.
	Phase1ParticipantCount int

	// Tiebreaker state for single-result mode. At most one supplementary
	// round per session.
	TiebreakerActive       bool
	TiebreakerCandidateIds []uuid.UUID
	TiebreakerScheduledAt  *time.Time

	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	EndedAt   *time.Time
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// SessionParticipant records that a user took a qualifying action (proposing,
// rating, commenting, voting) in a session. Membership is add-only.
// Phase1Member is stamped at phase1 exit; only those rows count toward the
// phase2 voting quorum.
type SessionParticipant struct {
	Id           uuid.UUID
	SessionId    uuid.UUID
	UserId       uuid.UUID
	Phase1Member bool
	CreatedAt    time.Time
}
