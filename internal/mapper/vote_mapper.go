package mapper

import (
	"agora-be/internal/entity"
	"agora-be/internal/model"
)

type VoteMapper struct{}

func NewVoteMapper() *VoteMapper {
	return &VoteMapper{}
}

func (m *VoteMapper) ToEntity(v *model.Vote) *entity.Vote {
	if v == nil {
		return nil
	}
	return &entity.Vote{
		Id:         v.Id,
		SessionId:  v.SessionId,
		ProposalId: v.ProposalId,
		UserId:     v.UserId,
		InFavor:    v.InFavor,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func (m *VoteMapper) ToModel(v *entity.Vote) *model.Vote {
	if v == nil {
		return nil
	}
	return &model.Vote{
		Id:         v.Id,
		SessionId:  v.SessionId,
		ProposalId: v.ProposalId,
		UserId:     v.UserId,
		InFavor:    v.InFavor,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func (m *VoteMapper) ToEntities(votes []*model.Vote) []*entity.Vote {
	entities := make([]*entity.Vote, len(votes))
	for i, v := range votes {
		entities[i] = m.ToEntity(v)
	}
	return entities
}

type TopProposalMapper struct{}

func NewTopProposalMapper() *TopProposalMapper {
	return &TopProposalMapper{}
}

func (m *TopProposalMapper) ToEntity(t *model.TopProposal) *entity.TopProposal {
	if t == nil {
		return nil
	}
	return &entity.TopProposal{
		Id:         t.Id,
		SessionId:  t.SessionId,
		ProposalId: t.ProposalId,
		Title:      t.Title,
		Content:    t.Content,
		YesVotes:   t.YesVotes,
		NoVotes:    t.NoVotes,
		CreatedAt:  t.CreatedAt,
	}
}

func (m *TopProposalMapper) ToModel(t *entity.TopProposal) *model.TopProposal {
	if t == nil {
		return nil
	}
	return &model.TopProposal{
		Id:         t.Id,
		SessionId:  t.SessionId,
		ProposalId: t.ProposalId,
		Title:      t.Title,
		Content:    t.Content,
		YesVotes:   t.YesVotes,
		NoVotes:    t.NoVotes,
		CreatedAt:  t.CreatedAt,
	}
}

func (m *TopProposalMapper) ToEntities(list []*model.TopProposal) []*entity.TopProposal {
	entities := make([]*entity.TopProposal, len(list))
	for i, t := range list {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
