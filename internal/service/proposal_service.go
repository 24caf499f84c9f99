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
	ErrProposalNotFound = errors.New("proposal not found")
	ErrProposingClosed  = errors.New("proposals can only be submitted during the rating phase")
	ErrRatingClosed     = errors.New("ratings can only be cast during the rating phase")
	ErrSelfRating       = errors.New("own proposals cannot be rated")
)

type IProposalService interface {
	Create(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.CreateProposalRequest) (*dto.CreateProposalResponse, error)
	List(ctx context.Context, sessionId uuid.UUID) ([]*dto.ProposalResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ProposalResponse, error)
	Rate(ctx context.Context, userId uuid.UUID, proposalId uuid.UUID, req *dto.RateProposalRequest) (*dto.RateProposalResponse, error)
	Comment(ctx context.Context, userId uuid.UUID, proposalId uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	ListComments(ctx context.Context, proposalId uuid.UUID) ([]*dto.CommentResponse, error)
}

type proposalService struct {
	uowFactory unitofwork.RepositoryFactory
	scheduler  *lifecycle.TransitionScheduler
	log        logger.ILogger
}

func NewProposalService(
	uowFactory unitofwork.RepositoryFactory,
	scheduler *lifecycle.TransitionScheduler,
	log logger.ILogger,
) IProposalService {
	return &proposalService{
		uowFactory: uowFactory,
		scheduler:  scheduler,
		log:        log,
	}
}

func (s *proposalService) Create(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.CreateProposalRequest) (*dto.CreateProposalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.activeSession(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Phase != entity.SessionPhase1 {
		return nil, ErrProposingClosed
	}

	proposal := &entity.Proposal{
		Id:        uuid.New(),
		SessionId: session.Id,
		UserId:    userId,
		Title:     req.Title,
		Content:   req.Content,
		Status:    entity.ProposalStatusActive,
	}
	if err := uow.ProposalRepository().Create(ctx, proposal); err != nil {
		return nil, err
	}
	if err := s.registerParticipant(ctx, uow, session.Id, userId); err != nil {
		return nil, err
	}
	return &dto.CreateProposalResponse{Id: proposal.Id}, nil
}

func (s *proposalService) List(ctx context.Context, sessionId uuid.UUID) ([]*dto.ProposalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	proposals, err := uow.ProposalRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByRatingRank{})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		res = append(res, toProposalResponse(p))
	}
	return res, nil
}

func (s *proposalService) Show(ctx context.Context, id uuid.UUID) (*dto.ProposalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	proposal, err := uow.ProposalRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, ErrProposalNotFound
	}
	return toProposalResponse(proposal), nil
}

// Rate upserts the caller's rating (re-rates overwrite, never duplicate),
// registers participation, refreshes the proposal aggregates and finally
// re-evaluates the phase1 exit condition.
func (s *proposalService) Rate(ctx context.Context, userId uuid.UUID, proposalId uuid.UUID, req *dto.RateProposalRequest) (*dto.RateProposalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	proposal, err := uow.ProposalRepository().FindOne(ctx, specification.ByID{ID: proposalId})
	if err != nil {
		return nil, err
	}
	if proposal == nil || proposal.Status != entity.ProposalStatusActive {
		return nil, ErrProposalNotFound
	}
	if proposal.UserId == userId {
		return nil, ErrSelfRating
	}

	session, err := s.activeSession(ctx, uow, proposal.SessionId)
	if err != nil {
		return nil, err
	}
	if session.Phase != entity.SessionPhase1 {
		return nil, ErrRatingClosed
	}

	if err := uow.RatingRepository().Upsert(ctx, &entity.Rating{
		Id:         uuid.New(),
		ProposalId: proposal.Id,
		SessionId:  session.Id,
		UserId:     userId,
		Value:      req.Value,
	}); err != nil {
		return nil, err
	}
	if err := s.registerParticipant(ctx, uow, session.Id, userId); err != nil {
		return nil, err
	}
	if err := uow.ProposalRepository().RecomputeAggregates(ctx, session.Id); err != nil {
		return nil, err
	}

	outcome, err := s.scheduler.CheckAndSchedule(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	fresh, err := uow.ProposalRepository().FindOne(ctx, specification.ByID{ID: proposal.Id})
	if err != nil {
		return nil, err
	}
	res := &dto.RateProposalResponse{
		TransitionAt:     outcome.ScheduledAt,
		SecondsRemaining: outcome.SecondsRemaining(time.Now()),
	}
	if fresh != nil {
		res.AverageRating = fresh.AverageRating
		res.RatingCount = fresh.RatingCount
	}
	return res, nil
}

func (s *proposalService) Comment(ctx context.Context, userId uuid.UUID, proposalId uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	proposal, err := uow.ProposalRepository().FindOne(ctx, specification.ByID{ID: proposalId})
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, ErrProposalNotFound
	}
	session, err := s.activeSession(ctx, uow, proposal.SessionId)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		Id:         uuid.New(),
		ProposalId: proposal.Id,
		SessionId:  session.Id,
		UserId:     userId,
		Content:    req.Content,
	}
	if err := uow.CommentRepository().Create(ctx, comment); err != nil {
		return nil, err
	}
	// Commenting counts as participation: it grows the quorum denominator.
	if err := s.registerParticipant(ctx, uow, session.Id, userId); err != nil {
		return nil, err
	}

	return &dto.CommentResponse{
		Id:        comment.Id,
		UserId:    comment.UserId,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}, nil
}

func (s *proposalService) ListComments(ctx context.Context, proposalId uuid.UUID) ([]*dto.CommentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	comments, err := uow.CommentRepository().FindAll(ctx,
		specification.ByProposalID{ProposalID: proposalId},
		specification.OrderBy{Expression: "created_at ASC"})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		res = append(res, &dto.CommentResponse{
			Id:        c.Id,
			UserId:    c.UserId,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return res, nil
}

func (s *proposalService) activeSession(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) (*entity.Session, error) {
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.IsActive() {
		return nil, ErrSessionNotActive
	}
	return session, nil
}

func (s *proposalService) registerParticipant(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, userId uuid.UUID) error {
	return uow.SessionRepository().AddParticipant(ctx, &entity.SessionParticipant{
		SessionId: sessionId,
		UserId:    userId,
	})
}

func toProposalResponse(p *entity.Proposal) *dto.ProposalResponse {
	return &dto.ProposalResponse{
		Id:            p.Id,
		SessionId:     p.SessionId,
		Title:         p.Title,
		Content:       p.Content,
		Status:        p.Status,
		AverageRating: p.AverageRating,
		RatingCount:   p.RatingCount,
		CreatedAt:     p.CreatedAt,
	}
}
