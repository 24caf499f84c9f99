package implementation

import (
	"context"

	"agora-be/internal/entity"
	"agora-be/internal/mapper"
	"agora-be/internal/model"
	"agora-be/internal/repository/contract"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TopProposalRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TopProposalMapper
}

func NewTopProposalRepository(db *gorm.DB) contract.TopProposalRepository {
	return &TopProposalRepositoryImpl{
		db:     db,
		mapper: mapper.NewTopProposalMapper(),
	}
}

func (r *TopProposalRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TopProposalRepositoryImpl) Create(ctx context.Context, topProposal *entity.TopProposal) error {
	m := r.mapper.ToModel(topProposal)
	// ON CONFLICT DO NOTHING backs up the Exists presence check, so a
	// concurrent closeSession re-run cannot duplicate a snapshot.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "proposal_id"}},
			DoNothing: true,
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*topProposal = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopProposalRepositoryImpl) Exists(ctx context.Context, sessionId, proposalId uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TopProposal{}).
		Where("session_id = ? AND proposal_id = ?", sessionId, proposalId).
		Count(&count).Error
	return count > 0, err
}

func (r *TopProposalRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TopProposal, error) {
	var models []*model.TopProposal
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
