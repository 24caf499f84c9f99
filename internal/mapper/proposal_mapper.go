package mapper

import (
	"agora-be/internal/entity"
	"agora-be/internal/model"
)

type ProposalMapper struct{}

func NewProposalMapper() *ProposalMapper {
	return &ProposalMapper{}
}

func (m *ProposalMapper) ToEntity(p *model.Proposal) *entity.Proposal {
	if p == nil {
		return nil
	}
	return &entity.Proposal{
		Id:            p.Id,
		SessionId:     p.SessionId,
		UserId:        p.UserId,
		Title:         p.Title,
		Content:       p.Content,
		Status:        p.Status,
		AverageRating: p.AverageRating,
		RatingCount:   p.RatingCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (m *ProposalMapper) ToModel(p *entity.Proposal) *model.Proposal {
	if p == nil {
		return nil
	}
	return &model.Proposal{
		Id:            p.Id,
		SessionId:     p.SessionId,
		UserId:        p.UserId,
		Title:         p.Title,
		Content:       p.Content,
		Status:        p.Status,
		AverageRating: p.AverageRating,
		RatingCount:   p.RatingCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (m *ProposalMapper) ToEntities(proposals []*model.Proposal) []*entity.Proposal {
	entities := make([]*entity.Proposal, len(proposals))
	for i, p := range proposals {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

type RatingMapper struct{}

func NewRatingMapper() *RatingMapper {
	return &RatingMapper{}
}

func (m *RatingMapper) ToEntity(r *model.Rating) *entity.Rating {
	if r == nil {
		return nil
	}
	return &entity.Rating{
		Id:         r.Id,
		ProposalId: r.ProposalId,
		SessionId:  r.SessionId,
		UserId:     r.UserId,
		Value:      r.Value,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (m *RatingMapper) ToModel(r *entity.Rating) *model.Rating {
	if r == nil {
		return nil
	}
	return &model.Rating{
		Id:         r.Id,
		ProposalId: r.ProposalId,
		SessionId:  r.SessionId,
		UserId:     r.UserId,
		Value:      r.Value,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (m *RatingMapper) ToEntities(ratings []*model.Rating) []*entity.Rating {
	entities := make([]*entity.Rating, len(ratings))
	for i, r := range ratings {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

type CommentMapper struct{}

func NewCommentMapper() *CommentMapper {
	return &CommentMapper{}
}

func (m *CommentMapper) ToEntity(c *model.Comment) *entity.Comment {
	if c == nil {
		return nil
	}
	return &entity.Comment{
		Id:         c.Id,
		ProposalId: c.ProposalId,
		SessionId:  c.SessionId,
		UserId:     c.UserId,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *CommentMapper) ToModel(c *entity.Comment) *model.Comment {
	if c == nil {
		return nil
	}
	return &model.Comment{
		Id:         c.Id,
		ProposalId: c.ProposalId,
		SessionId:  c.SessionId,
		UserId:     c.UserId,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *CommentMapper) ToEntities(comments []*model.Comment) []*entity.Comment {
	entities := make([]*entity.Comment, len(comments))
	for i, c := range comments {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
