package model

import (
	"time"

	"github.com/google/uuid"
)

// TopProposal rows are written once at close time and never updated. The
// unique index makes closeSession re-runs idempotent.
type TopProposal struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_top_proposal_session_proposal"`
	ProposalId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_top_proposal_session_proposal"`
	Title      string    `gorm:"type:varchar(255);not null"`
	Content    string    `gorm:"type:text"`
	YesVotes   int       `gorm:"not null;default:0"`
	NoVotes    int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (TopProposal) TableName() string {
	return "top_proposals"
}
