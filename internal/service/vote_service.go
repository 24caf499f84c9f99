package service

import (
	"context"
	"errors"
	"time"

	"agora-be/internal/dto"
	"agora-be/internal/entity"
	"agora-be/internal/pkg/logger"
	"agora-be/internal/repository/specification"
	"agora-be/internal/repository/unitofwork"
	"agora-be/pkg/lifecycle"

	"github.com/google/uuid"
)

var (
	ErrVotingClosed       = errors.New("votes can only be cast during the voting phase")
	ErrNotACandidate      = errors.New("proposal is not on the ballot")
	ErrOutsideTiebreakSet = errors.New("voting is restricted to the tiebreaker candidates")
)

type IVoteService interface {
	Cast(ctx context.Context, userId uuid.UUID, proposalId uuid.UUID, req *dto.CastVoteRequest) (*dto.CastVoteResponse, error)
	Tallies(ctx context.Context, sessionId uuid.UUID) ([]*dto.VoteTallyResponse, error)
}

type voteService struct {
	uowFactory unitofwork.RepositoryFactory
	terminator *lifecycle.TerminationScheduler
	log        logger.ILogger
}

func NewVoteService(
	uowFactory unitofwork.RepositoryFactory,
	terminator *lifecycle.TerminationScheduler,
	log logger.ILogger,
) IVoteService {
	return &voteService{
		uowFactory: uowFactory,
		terminator: terminator,
		log:        log,
	}
}

// Cast upserts the caller's ballot (revisions allowed until close), registers
// participation and re-evaluates the termination condition. During an active
// tiebreaker round only the narrowed candidate set accepts votes.
func (s *voteService) Cast(ctx context.Context, userId uuid.UUID, proposalId uuid.UUID, req *dto.CastVoteRequest) (*dto.CastVoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	proposal, err := uow.ProposalRepository().FindOne(ctx, specification.ByID{ID: proposalId})
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, ErrProposalNotFound
	}

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: proposal.SessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.IsActive() || session.Phase != entity.SessionPhase2 {
		return nil, ErrVotingClosed
	}
	if proposal.Status != entity.ProposalStatusTop3 {
		return nil, ErrNotACandidate
	}
	if session.TiebreakerActive && !containsId(session.TiebreakerCandidateIds, proposal.Id) {
		return nil, ErrOutsideTiebreakSet
	}

	if err := uow.VoteRepository().Upsert(ctx, &entity.Vote{
		Id:         uuid.New(),
		SessionId:  session.Id,
		ProposalId: proposal.Id,
		UserId:     userId,
		InFavor:    *req.InFavor,
	}); err != nil {
		return nil, err
	}
	if err := uow.SessionRepository().AddParticipant(ctx, &entity.SessionParticipant{
		SessionId: session.Id,
		UserId:    userId,
	}); err != nil {
		return nil, err
	}

	outcome, err := s.terminator.CheckAndSchedule(ctx, session.Id)
	if err != nil {
		return nil, err
	}
	return &dto.CastVoteResponse{
		ProposalId:       proposal.Id,
		InFavor:          *req.InFavor,
		TerminationAt:    outcome.ScheduledAt,
		SecondsRemaining: outcome.SecondsRemaining(time.Now()),
	}, nil
}

func (s *voteService) Tallies(ctx context.Context, sessionId uuid.UUID) ([]*dto.VoteTallyResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tallies, err := uow.VoteRepository().TallyBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.VoteTallyResponse, 0, len(tallies))
	for _, t := range tallies {
		res = append(res, &dto.VoteTallyResponse{
			ProposalId: t.ProposalId,
			YesVotes:   t.YesVotes,
			NoVotes:    t.NoVotes,
		})
	}
	return res, nil
}

func containsId(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
