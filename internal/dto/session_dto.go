package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title            string `json:"title" validate:"required,min=3,max=255"`
	Description      string `json:"description"`
	Variant          string `json:"variant" validate:"omitempty,oneof=standard ranking"`
	SingleResultMode bool   `json:"single_result_mode"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SessionResponse struct {
	Id               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Phase            string     `json:"phase"`
	Status           string     `json:"status"`
	Variant          string     `json:"variant"`
	SingleResultMode bool       `json:"single_result_mode"`
	TiebreakerActive bool       `json:"tiebreaker_active"`
	CreatedAt        time.Time  `json:"created_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`

	// Countdown the client should display, if any.
	TransitionScheduledAt *time.Time `json:"transition_scheduled_at,omitempty"`
	SecondsRemaining      int        `json:"seconds_remaining"`
}

type SessionProgressResponse struct {
	SessionId          uuid.UUID  `json:"session_id"`
	Phase              string     `json:"phase"`
	ActiveProposals    int64      `json:"active_proposals"`
	RatedProposals     int64      `json:"rated_proposals"`
	Participants       int64      `json:"participants"`
	ParticipantsActed  int64      `json:"participants_acted"`
	ConditionMet       bool       `json:"condition_met"`
	TransitionDeadline *time.Time `json:"transition_deadline,omitempty"`
}

// PollResponse reports what an opportunistic poll sweep did plus the fresh
// session state. Most polls do nothing; one caller per due countdown wins.
type PollResponse struct {
	TransitionExecuted bool             `json:"transition_executed"`
	SessionClosed      bool             `json:"session_closed"`
	TiebreakerStarted  bool             `json:"tiebreaker_started"`
	Session            *SessionResponse `json:"session"`
}

type AdjustTopCountRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type AdjustTopCountResponse struct {
	TopCount int `json:"top_count"`
}

type ForceScheduleResponse struct {
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	SecondsRemaining int        `json:"seconds_remaining"`
}

type SessionResultsResponse struct {
	SessionId uuid.UUID             `json:"session_id"`
	Winners   []TopProposalResponse `json:"winners"`
}

type TopProposalResponse struct {
	Id         uuid.UUID `json:"id"`
	ProposalId uuid.UUID `json:"proposal_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	YesVotes   int       `json:"yes_votes"`
	NoVotes    int       `json:"no_votes"`
}
