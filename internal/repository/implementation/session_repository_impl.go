package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agora-be/internal/entity"
	"agora-be/internal/mapper"
	"agora-be/internal/model"
	"agora-be/internal/repository/contract"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db                *gorm.DB
	mapper            *mapper.SessionMapper
	participantMapper *mapper.SessionParticipantMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:                db,
		mapper:            mapper.NewSessionMapper(),
		participantMapper: mapper.NewSessionParticipantMapper(),
	}
}

func (r *SessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) Update(ctx context.Context, session *entity.Session) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	var m model.Session
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	var models []*model.Session
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Session{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// The Schedule*/Claim* methods below are the engine's only synchronization
// primitive: one conditional UPDATE each, winner decided by RowsAffected.

func (r *SessionRepositoryImpl) SchedulePhase1Transition(ctx context.Context, sessionId uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ? AND phase = ? AND phase1_transition_scheduled_at IS NULL",
			sessionId, entity.SessionStatusActive, entity.SessionPhase1).
		Update("phase1_transition_scheduled_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) ClaimPhase1Transition(ctx context.Context, sessionId uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ? AND phase = ? AND phase1_transition_scheduled_at IS NOT NULL AND phase1_transition_scheduled_at <= ?",
			sessionId, entity.SessionStatusActive, entity.SessionPhase1, now).
		Update("phase1_transition_scheduled_at", gorm.Expr("NULL"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) ScheduleTermination(ctx context.Context, sessionId uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ? AND phase = ? AND phase2_termination_scheduled_at IS NULL",
			sessionId, entity.SessionStatusActive, entity.SessionPhase2).
		Update("phase2_termination_scheduled_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) ClaimTermination(ctx context.Context, sessionId uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ? AND phase = ? AND phase2_termination_scheduled_at IS NOT NULL AND phase2_termination_scheduled_at <= ?",
			sessionId, entity.SessionStatusActive, entity.SessionPhase2, now).
		Update("phase2_termination_scheduled_at", gorm.Expr("NULL"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) ActivateTiebreaker(ctx context.Context, sessionId uuid.UUID, candidateIds []uuid.UUID, at time.Time) error {
	raw, err := json.Marshal(candidateIds)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ?", sessionId).
		Updates(map[string]interface{}{
			"tiebreaker_active":        true,
			"tiebreaker_candidate_ids": raw,
			"tiebreaker_scheduled_at":  at,
		}).Error
}

func (r *SessionRepositoryImpl) ClaimTiebreakerRound(ctx context.Context, sessionId uuid.UUID, now time.Time) (bool, error) {
	// Clears only the round timestamp; tiebreaker_active stays set so the
	// closer resolves over the narrowed candidate set.
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ? AND tiebreaker_active = ? AND tiebreaker_scheduled_at IS NOT NULL AND tiebreaker_scheduled_at <= ?",
			sessionId, entity.SessionStatusActive, true, now).
		Update("tiebreaker_scheduled_at", gorm.Expr("NULL"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) AddParticipant(ctx context.Context, participant *entity.SessionParticipant) error {
	m := r.participantMapper.ToModel(participant)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(m).Error
}

func (r *SessionRepositoryImpl) MarkPhase1Universe(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.SessionParticipant{}).
		Where("session_id = ?", sessionId).
		Update("phase1_member", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *SessionRepositoryImpl) SetCustomTopCount(ctx context.Context, sessionId uuid.UUID, topCount int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ? AND phase = ? AND phase1_transition_scheduled_at IS NOT NULL",
			sessionId, entity.SessionStatusActive, entity.SessionPhase1).
		Update("custom_top_count", topCount)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) FindParticipants(ctx context.Context, sessionId uuid.UUID) ([]*entity.SessionParticipant, error) {
	var models []*model.SessionParticipant
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.participantMapper.ToEntities(models), nil
}

func (r *SessionRepositoryImpl) CountParticipants(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SessionParticipant{}).
		Where("session_id = ?", sessionId).
		Count(&count).Error
	return count, err
}
