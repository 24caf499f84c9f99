package model

import (
	"time"

	"github.com/google/uuid"
)

type Proposal struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId     uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;index"`
	Title         string    `gorm:"type:varchar(255);not null"`
	Content       string    `gorm:"type:text"`
	Status        string    `gorm:"type:varchar(20);not null;default:'active';index"`
	AverageRating float64   `gorm:"not null;default:0"`
	RatingCount   int       `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Proposal) TableName() string {
	return "proposals"
}
