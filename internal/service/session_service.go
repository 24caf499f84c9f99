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
	ErrActiveSessionExists = errors.New("an active session already exists")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotActive    = errors.New("session is not active")
)

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	Current(ctx context.Context) (*dto.SessionResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	Progress(ctx context.Context, id uuid.UUID) (*dto.SessionProgressResponse, error)
	Poll(ctx context.Context, id uuid.UUID) (*dto.PollResponse, error)
	Results(ctx context.Context, id uuid.UUID) (*dto.SessionResultsResponse, error)

	// Admin operations.
	ForceTransition(ctx context.Context, id uuid.UUID) (*dto.ForceScheduleResponse, error)
	ForceTermination(ctx context.Context, id uuid.UUID) (*dto.ForceScheduleResponse, error)
	AdjustTopCount(ctx context.Context, id uuid.UUID, req *dto.AdjustTopCountRequest) (*dto.AdjustTopCountResponse, error)
	CloseNow(ctx context.Context, id uuid.UUID) (*dto.SessionResultsResponse, error)
	Archive(ctx context.Context, id uuid.UUID) error
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	tracker    *lifecycle.ParticipationTracker
	scheduler  *lifecycle.TransitionScheduler
	terminator *lifecycle.TerminationScheduler
	executor   *lifecycle.PhaseTransitionExecutor
	termExec   *lifecycle.TerminationExecutor
	closer     *lifecycle.SessionCloser
	log        logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	tracker *lifecycle.ParticipationTracker,
	scheduler *lifecycle.TransitionScheduler,
	terminator *lifecycle.TerminationScheduler,
	executor *lifecycle.PhaseTransitionExecutor,
	termExec *lifecycle.TerminationExecutor,
	closer *lifecycle.SessionCloser,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		tracker:    tracker,
		scheduler:  scheduler,
		terminator: terminator,
		executor:   executor,
		termExec:   termExec,
		closer:     closer,
		log:        log,
	}
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Application-level check; the partial unique index on sessions(status)
	// WHERE status='active' is the authoritative guard under races.
	active, err := uow.SessionRepository().Count(ctx, specification.SessionActive{})
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrActiveSessionExists
	}

	variant := req.Variant
	if variant == "" {
		variant = entity.SessionVariantStandard
	}
	session := &entity.Session{
		Id:               uuid.New(),
		Title:            req.Title,
		Description:      req.Description,
		Phase:            entity.SessionPhase1,
		Status:           entity.SessionStatusActive,
		Variant:          variant,
		SingleResultMode: req.SingleResultMode,
		CreatedBy:        userId,
	}
	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("SessionService", "session created", map[string]interface{}{
		"session_id": session.Id.String(),
		"variant":    variant,
	})
	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *sessionService) Current(ctx context.Context) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.SessionActive{})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.showAfterSweep(ctx, session.Id)
}

func (s *sessionService) Show(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	return s.showAfterSweep(ctx, id)
}

// showAfterSweep executes any due countdown before rendering, so the state a
// client reads is never stale past its own deadline.
func (s *sessionService) showAfterSweep(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	s.sweep(ctx, id)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return toSessionResponse(session), nil
}

// sweep runs both executors. Failures are logged, not surfaced: a read must
// not fail because a concurrent transition hit trouble.
func (s *sessionService) sweep(ctx context.Context, id uuid.UUID) {
	if _, err := s.executor.ExecuteDue(ctx, id); err != nil && !errors.Is(err, lifecycle.ErrSessionNotFound) {
		s.log.Warn("SessionService", "due transition sweep failed", map[string]interface{}{
			"session_id": id.String(),
			"error":      err.Error(),
		})
	}
	if _, err := s.termExec.ExecuteDue(ctx, id); err != nil && !errors.Is(err, lifecycle.ErrSessionNotFound) {
		s.log.Warn("SessionService", "due termination sweep failed", map[string]interface{}{
			"session_id": id.String(),
			"error":      err.Error(),
		})
	}
}

func (s *sessionService) Progress(ctx context.Context, id uuid.UUID) (*dto.SessionProgressResponse, error) {
	s.sweep(ctx, id)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	p, err := s.tracker.Progress(ctx, session)
	if err != nil {
		return nil, err
	}
	return &dto.SessionProgressResponse{
		SessionId:          p.SessionId,
		Phase:              p.Phase,
		ActiveProposals:    p.ActiveProposals,
		RatedProposals:     p.RatedProposals,
		Participants:       p.Participants,
		ParticipantsActed:  p.ParticipantsActed,
		ConditionMet:       p.ConditionMet,
		TransitionDeadline: p.TransitionDeadline,
	}, nil
}

// Poll is the explicit client heartbeat during countdowns. Unlike the silent
// sweep on reads, transition failures surface here so a wedged session is
// visible to whoever is watching.
func (s *sessionService) Poll(ctx context.Context, id uuid.UUID) (*dto.PollResponse, error) {
	transition, err := s.executor.ExecuteDue(ctx, id)
	if err != nil {
		return nil, err
	}
	termination, err := s.termExec.ExecuteDue(ctx, id)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	return &dto.PollResponse{
		TransitionExecuted: transition.Executed,
		SessionClosed:      termination.Executed && !termination.TiebreakerStarted,
		TiebreakerStarted:  termination.TiebreakerStarted,
		Session:            toSessionResponse(session),
	}, nil
}

func (s *sessionService) Results(ctx context.Context, id uuid.UUID) (*dto.SessionResultsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	tops, err := uow.TopProposalRepository().FindAll(ctx, specification.BySessionID{SessionID: id})
	if err != nil {
		return nil, err
	}

	res := &dto.SessionResultsResponse{SessionId: id, Winners: make([]dto.TopProposalResponse, 0, len(tops))}
	for _, t := range tops {
		res.Winners = append(res.Winners, dto.TopProposalResponse{
			Id:         t.Id,
			ProposalId: t.ProposalId,
			Title:      t.Title,
			Content:    t.Content,
			YesVotes:   t.YesVotes,
			NoVotes:    t.NoVotes,
		})
	}
	return res, nil
}

func (s *sessionService) ForceTransition(ctx context.Context, id uuid.UUID) (*dto.ForceScheduleResponse, error) {
	out, err := s.scheduler.ForceSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ForceScheduleResponse{
		ScheduledAt:      out.ScheduledAt,
		SecondsRemaining: out.SecondsRemaining(time.Now()),
	}, nil
}

func (s *sessionService) ForceTermination(ctx context.Context, id uuid.UUID) (*dto.ForceScheduleResponse, error) {
	out, err := s.terminator.ForceSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ForceScheduleResponse{
		ScheduledAt:      out.ScheduledAt,
		SecondsRemaining: out.SecondsRemaining(time.Now()),
	}, nil
}

func (s *sessionService) AdjustTopCount(ctx context.Context, id uuid.UUID, req *dto.AdjustTopCountRequest) (*dto.AdjustTopCountResponse, error) {
	n, err := s.scheduler.AdjustSurvivorCount(ctx, id, req.Delta)
	if err != nil {
		return nil, err
	}
	return &dto.AdjustTopCountResponse{TopCount: n}, nil
}

// CloseNow tallies and closes immediately, skipping the countdown. Only a
// phase2 session has votes to tally.
func (s *sessionService) CloseNow(ctx context.Context, id uuid.UUID) (*dto.SessionResultsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.IsActive() {
		return nil, ErrSessionNotActive
	}
	if session.Phase != entity.SessionPhase2 {
		return nil, lifecycle.ErrWrongPhase
	}

	res, err := s.closer.Close(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.TiebreakerStarted {
		return &dto.SessionResultsResponse{SessionId: id, Winners: []dto.TopProposalResponse{}}, nil
	}
	return s.Results(ctx, id)
}

// Archive retires a session without winner selection. This is how ranking
// variant sessions end; it also serves as the admin kill switch for a
// session that never got off the ground.
func (s *sessionService) Archive(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if !session.IsActive() {
		return ErrSessionNotActive
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ProposalRepository().ArchiveBySession(ctx, id); err != nil {
		return err
	}
	now := time.Now().UTC()
	session.Status = entity.SessionStatusArchived
	session.Phase = entity.SessionPhaseArchived
	session.Phase1TransitionScheduledAt = nil
	session.Phase2TerminationScheduledAt = nil
	session.TiebreakerActive = false
	session.TiebreakerScheduledAt = nil
	session.EndedAt = &now
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.log.Info("SessionService", "session archived", map[string]interface{}{"session_id": id.String()})
	return nil
}

func toSessionResponse(session *entity.Session) *dto.SessionResponse {
	res := &dto.SessionResponse{
		Id:               session.Id,
		Title:            session.Title,
		Description:      session.Description,
		Phase:            session.Phase,
		Status:           session.Status,
		Variant:          session.Variant,
		SingleResultMode: session.SingleResultMode,
		TiebreakerActive: session.TiebreakerActive,
		CreatedAt:        session.CreatedAt,
		EndedAt:          session.EndedAt,
	}

	switch {
	case session.Phase == entity.SessionPhase1:
		res.TransitionScheduledAt = session.Phase1TransitionScheduledAt
	case session.TiebreakerActive && session.TiebreakerScheduledAt != nil:
		res.TransitionScheduledAt = session.TiebreakerScheduledAt
	case session.Phase == entity.SessionPhase2:
		res.TransitionScheduledAt = session.Phase2TerminationScheduledAt
	}
	if res.TransitionScheduledAt != nil {
		if secs := int(time.Until(*res.TransitionScheduledAt).Seconds()); secs > 0 {
			res.SecondsRemaining = secs
		}
	}
	return res
}
