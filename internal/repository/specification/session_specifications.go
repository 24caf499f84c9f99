package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type SessionActive struct{}

func (s SessionActive) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "active")
}

type SessionInPhase struct {
	Phase string
}

func (s SessionInPhase) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("phase = ?", s.Phase)
}
