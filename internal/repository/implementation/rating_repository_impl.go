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

type RatingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RatingMapper
}

func NewRatingRepository(db *gorm.DB) contract.RatingRepository {
	return &RatingRepositoryImpl{
		db:     db,
		mapper: mapper.NewRatingMapper(),
	}
}

func (r *RatingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RatingRepositoryImpl) Upsert(ctx context.Context, rating *entity.Rating) error {
	m := r.mapper.ToModel(rating)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*rating = *r.mapper.ToEntity(m)
	return nil
}

func (r *RatingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Rating, error) {
	var m model.Rating
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RatingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Rating, error) {
	var models []*model.Rating
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RatingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Rating{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RatingRepositoryImpl) CountDistinctRaters(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Rating{}).
		Where("session_id = ?", sessionId).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
