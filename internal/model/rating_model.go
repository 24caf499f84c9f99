package model

import (
	"time"

	"github.com/google/uuid"
)

type Rating struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProposalId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_rating_proposal_user"`
	SessionId  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_rating_proposal_user"`
	Value      int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Rating) TableName() string {
	return "ratings"
}
