package implementation

import (
	"context"
	"errors"

	"agora-be/internal/entity"
	"agora-be/internal/mapper"
	"agora-be/internal/model"
	"agora-be/internal/repository/contract"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProposalMapper
}

func NewProposalRepository(db *gorm.DB) contract.ProposalRepository {
	return &ProposalRepositoryImpl{
		db:     db,
		mapper: mapper.NewProposalMapper(),
	}
}

func (r *ProposalRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProposalRepositoryImpl) Create(ctx context.Context, proposal *entity.Proposal) error {
	m := r.mapper.ToModel(proposal)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*proposal = *r.mapper.ToEntity(m)
	return nil
}

func (r *ProposalRepositoryImpl) Update(ctx context.Context, proposal *entity.Proposal) error {
	m := r.mapper.ToModel(proposal)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*proposal = *r.mapper.ToEntity(m)
	return nil
}

func (r *ProposalRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Proposal, error) {
	var m model.Proposal
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ProposalRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Proposal, error) {
	var models []*model.Proposal
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ProposalRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Proposal{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ProposalRepositoryImpl) UpdateStatusByIDs(ctx context.Context, ids []uuid.UUID, status string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Proposal{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}

func (r *ProposalRepositoryImpl) ArchiveBySession(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Proposal{}).
		Where("session_id = ? AND status <> ?", sessionId, entity.ProposalStatusArchived).
		Update("status", entity.ProposalStatusArchived).Error
}

func (r *ProposalRepositoryImpl) RecomputeAggregates(ctx context.Context, sessionId uuid.UUID) error {
	// Correlated subqueries keep this a single statement on both postgres
	// and the sqlite test harness.
	return r.db.WithContext(ctx).Exec(`
		UPDATE proposals SET
			rating_count = (SELECT COUNT(*) FROM ratings WHERE ratings.proposal_id = proposals.id),
			average_rating = COALESCE((SELECT AVG(value) FROM ratings WHERE ratings.proposal_id = proposals.id), 0)
		WHERE proposals.session_id = ?`, sessionId).Error
}
