package mapper

import (
	"encoding/json"

	"agora-be/internal/entity"
	"agora-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var candidates []uuid.UUID
	if len(s.TiebreakerCandidateIds) > 0 {
		// Corrupt JSON here would mean a broken write path; treat as empty.
		_ = json.Unmarshal(s.TiebreakerCandidateIds, &candidates)
	}

	return &entity.Session{
		Id:                           s.Id,
		Title:                        s.Title,
		Description:                  s.Description,
		Phase:                        s.Phase,
		Status:                       s.Status,
		Variant:                      s.Variant,
		SingleResultMode:             s.SingleResultMode,
		CustomTopCount:               s.CustomTopCount,
		Phase1TransitionScheduledAt:  s.Phase1TransitionScheduledAt,
		Phase2StartedAt:              s.Phase2StartedAt,
		Phase2TerminationScheduledAt: s.Phase2TerminationScheduledAt,
		Phase1ParticipantCount:       s.Phase1ParticipantCount,
		TiebreakerActive:             s.TiebreakerActive,
		TiebreakerCandidateIds:       candidates,
		TiebreakerScheduledAt:        s.TiebreakerScheduledAt,
		CreatedBy:                    s.CreatedBy,
		CreatedAt:                    s.CreatedAt,
		UpdatedAt:                    s.UpdatedAt,
		EndedAt:                      s.EndedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	var candidateJSON datatypes.JSON
	if len(s.TiebreakerCandidateIds) > 0 {
		raw, _ := json.Marshal(s.TiebreakerCandidateIds)
		candidateJSON = datatypes.JSON(raw)
	}

	return &model.Session{
		Id:                           s.Id,
		Title:                        s.Title,
		Description:                  s.Description,
		Phase:                        s.Phase,
		Status:                       s.Status,
		Variant:                      s.Variant,
		SingleResultMode:             s.SingleResultMode,
		CustomTopCount:               s.CustomTopCount,
		Phase1TransitionScheduledAt:  s.Phase1TransitionScheduledAt,
		Phase2StartedAt:              s.Phase2StartedAt,
		Phase2TerminationScheduledAt: s.Phase2TerminationScheduledAt,
		Phase1ParticipantCount:       s.Phase1ParticipantCount,
		TiebreakerActive:             s.TiebreakerActive,
		TiebreakerCandidateIds:       candidateJSON,
		TiebreakerScheduledAt:        s.TiebreakerScheduledAt,
		CreatedBy:                    s.CreatedBy,
		CreatedAt:                    s.CreatedAt,
		UpdatedAt:                    s.UpdatedAt,
		EndedAt:                      s.EndedAt,
	}
}

func (m *SessionMapper) ToEntities(sessions []*model.Session) []*entity.Session {
	entities := make([]*entity.Session, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

type SessionParticipantMapper struct{}

func NewSessionParticipantMapper() *SessionParticipantMapper {
	return &SessionParticipantMapper{}
}

func (m *SessionParticipantMapper) ToEntity(p *model.SessionParticipant) *entity.SessionParticipant {
	if p == nil {
		return nil
	}
	return &entity.SessionParticipant{
		Id:           p.Id,
		SessionId:    p.SessionId,
		UserId:       p.UserId,
		Phase1Member: p.Phase1Member,
		CreatedAt:    p.CreatedAt,
	}
}

func (m *SessionParticipantMapper) ToModel(p *entity.SessionParticipant) *model.SessionParticipant {
	if p == nil {
		return nil
	}
	return &model.SessionParticipant{
		Id:           p.Id,
		SessionId:    p.SessionId,
		UserId:       p.UserId,
		Phase1Member: p.Phase1Member,
		CreatedAt:    p.CreatedAt,
	}
}

func (m *SessionParticipantMapper) ToEntities(list []*model.SessionParticipant) []*entity.SessionParticipant {
	entities := make([]*entity.SessionParticipant, len(list))
	for i, p := range list {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
