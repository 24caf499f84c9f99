package model

import (
	"time"

	"github.com/google/uuid"
)

// Vote uniqueness is a DB constraint, not application logic: final votes
// determine irreversible outcomes.
type Vote struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_vote_session_proposal_user"`
	ProposalId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_vote_session_proposal_user"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_vote_session_proposal_user"`
	InFavor    bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Vote) TableName() string {
	return "votes"
}
