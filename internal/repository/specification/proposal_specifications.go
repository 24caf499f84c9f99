package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalWithStatus struct {
	Status string
}

func (s ProposalWithStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ProposalRated struct{}

func (s ProposalRated) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("rating_count > 0")
}

// ByRatingRank orders proposals the way the phase1 cutoff ranks them.
type ByRatingRank struct{}

func (s ByRatingRank) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("average_rating DESC, rating_count DESC")
}

type ByProposalID struct {
	ProposalID uuid.UUID
}

func (s ByProposalID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("proposal_id = ?", s.ProposalID)
}

type ByProposalIDs struct {
	ProposalIDs []uuid.UUID
}

func (s ByProposalIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("proposal_id IN ?", s.ProposalIDs)
}
