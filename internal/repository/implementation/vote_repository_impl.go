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
	"gorm.io/gorm/clause"
)

type VoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.VoteMapper
}

func NewVoteRepository(db *gorm.DB) contract.VoteRepository {
	return &VoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewVoteMapper(),
	}
}

func (r *VoteRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *VoteRepositoryImpl) Upsert(ctx context.Context, vote *entity.Vote) error {
	m := r.mapper.ToModel(vote)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "proposal_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"in_favor", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*vote = *r.mapper.ToEntity(m)
	return nil
}

func (r *VoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Vote, error) {
	var m model.Vote
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *VoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Vote, error) {
	var models []*model.Vote
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *VoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Vote{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *VoteRepositoryImpl) CountDistinctVoters(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("session_id = ?", sessionId).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}

func (r *VoteRepositoryImpl) CountDistinctUniverseVoters(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Joins("JOIN session_participants sp ON sp.session_id = votes.session_id AND sp.user_id = votes.user_id").
		Where("votes.session_id = ? AND sp.phase1_member = ?", sessionId, true).
		Distinct("votes.user_id").
		Count(&count).Error
	return count, err
}

func (r *VoteRepositoryImpl) TallyBySession(ctx context.Context, sessionId uuid.UUID) (map[uuid.UUID]contract.VoteTally, error) {
	type row struct {
		ProposalId uuid.UUID
		InFavor    bool
		N          int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Select("proposal_id, in_favor, COUNT(*) as n").
		Where("session_id = ?", sessionId).
		Group("proposal_id, in_favor").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	tallies := make(map[uuid.UUID]contract.VoteTally)
	for _, rw := range rows {
		t := tallies[rw.ProposalId]
		t.ProposalId = rw.ProposalId
		if rw.InFavor {
			t.YesVotes += rw.N
		} else {
			t.NoVotes += rw.N
		}
		tallies[rw.ProposalId] = t
	}
	return tallies, nil
}
