package dto

import (
	"time"

	"github.com/google/uuid"
)

type CastVoteRequest struct {
	InFavor *bool `json:"in_favor" validate:"required"`
}

type CastVoteResponse struct {
	ProposalId       uuid.UUID  `json:"proposal_id"`
	InFavor          bool       `json:"in_favor"`
	TerminationAt    *time.Time `json:"termination_at,omitempty"`
	SecondsRemaining int        `json:"seconds_remaining"`
}

type VoteTallyResponse struct {
	ProposalId uuid.UUID `json:"proposal_id"`
	YesVotes   int       `json:"yes_votes"`
	NoVotes    int       `json:"no_votes"`
}
