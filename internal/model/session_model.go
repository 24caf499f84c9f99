package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Session owns all phase and scheduling fields. Proposals and votes reference
// it by id only; the session holds no back-pointers.
//
// The "at most one active session" invariant is enforced by a partial unique
// index on (status) WHERE status = 'active', created in cmd/migrate.
type Session struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title            string    `gorm:"type:varchar(255);not null"`
	Description      string    `gorm:"type:text"`
	Phase            string    `gorm:"type:varchar(20);not null;default:'phase1';index"`
	Status           string    `gorm:"type:varchar(20);not null;default:'active';index"`
	Variant          string    `gorm:"type:varchar(20);not null;default:'standard'"`
	SingleResultMode bool      `gorm:"not null;default:false"`
	CustomTopCount   *int

	Phase1TransitionScheduledAt  *time.Time
	Phase2StartedAt              *time.Time
	Phase2TerminationScheduledAt *time.Time
	Phase1ParticipantCount       int `gorm:"not null;default:0"`

	TiebreakerActive       bool           `gorm:"not null;default:false"`
	TiebreakerCandidateIds datatypes.JSON `gorm:"type:jsonb"`
	TiebreakerScheduledAt  *time.Time

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	EndedAt   *time.Time
}

func (Session) TableName() string {
	return "sessions"
}

type SessionParticipant struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_session_participant"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_session_participant"`
	// Phase1Member marks membership in the voting-quorum universe, stamped
	// once when the session leaves phase1.
	Phase1Member bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (SessionParticipant) TableName() string {
	return "session_participants"
}
