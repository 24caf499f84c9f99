package entity

import (
	"time"

	"github.com/google/uuid"
)

// Proposal statuses. "top3" is historical naming: it means the proposal
// survived the phase1 cutoff, not that there are literally three.
const (
	ProposalStatusActive   = "active"
	ProposalStatusTop3     = "top3"
	ProposalStatusArchived = "archived"
)

type Proposal struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	UserId    uuid.UUID
	Title     string
	Content   string
	Status    string

	// Aggregates recomputed incrementally as ratings arrive.
	AverageRating float64
	RatingCount   int

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Rating struct {
	Id         uuid.UUID
	ProposalId uuid.UUID
	SessionId  uuid.UUID
	UserId     uuid.UUID
	Value      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Comment struct {
	Id         uuid.UUID
	ProposalId uuid.UUID
	SessionId  uuid.UUID
	UserId     uuid.UUID
	Content    string
	CreatedAt  time.Time
}
