package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProposalId uuid.UUID `gorm:"type:uuid;not null;index"`
	SessionId  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Comment) TableName() string {
	return "comments"
}
