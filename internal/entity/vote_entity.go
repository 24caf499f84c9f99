package entity

import (
	"time"

	"github.com/google/uuid"
)

// Vote is the final yes/no ballot. One per (session, proposal, participant),
// enforced by a DB uniqueness constraint since final votes determine
// irreversible outcomes.
type Vote struct {
	Id         uuid.UUID
	SessionId  uuid.UUID
	ProposalId uuid.UUID
	UserId     uuid.UUID
	InFavor    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TopProposal is the immutable snapshot created once per winning proposal at
// close time. It is the permanent historical record, independent of the live
// Proposal entity's later archival or deletion.
type TopProposal struct {
	Id         uuid.UUID
	SessionId  uuid.UUID
	ProposalId uuid.UUID
	Title      string
	Content    string
	YesVotes   int
	NoVotes    int
	CreatedAt  time.Time
}
