package lifecycle

import (
	"context"
	"time"

	"agora-be/internal/entity"
	"agora-be/internal/pkg/logger"
	"agora-be/internal/repository/contract"
	"agora-be/internal/repository/specification"
	"agora-be/pkg/events"

	"github.com/google/uuid"
)

// TransitionResult reports what a due-transition sweep did. Executed is true
// only for the single caller that won the claim.
type TransitionResult struct {
	Executed      bool
	TopCount      int
	PromotedCount int
	ArchivedCount int
}

// PhaseTransitionExecutor moves a session from phase1 to phase2 once its
// scheduled timestamp is due. It runs opportunistically inside read requests
// (status, progress, polls), so execution is piggybacked on traffic rather
// than on a background worker.
type PhaseTransitionExecutor struct {
	sessionRepo  contract.SessionRepository
	proposalRepo contract.ProposalRepository
	publisher    EventPublisher
	log          logger.ILogger

	now func() time.Time
}

func NewPhaseTransitionExecutor(
	sessionRepo contract.SessionRepository,
	proposalRepo contract.ProposalRepository,
	publisher EventPublisher,
	log logger.ILogger,
) *PhaseTransitionExecutor {
	return &PhaseTransitionExecutor{
		sessionRepo:  sessionRepo,
		proposalRepo: proposalRepo,
		publisher:    publisher,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteDue performs the transition when the countdown has expired. The
// sequence is: validate, claim, execute. Validation happens before the claim
// so an invalid session (proposal pool shrunk below two) keeps its schedule
// flag intact and surfaces ErrNotEnoughProposals instead of silently wedging.
// Losing the claim is not an error; the winner is doing the work.
func (e *PhaseTransitionExecutor) ExecuteDue(ctx context.Context, sessionId uuid.UUID) (*TransitionResult, error) {
	session, err := e.sessionRepo.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	now := e.now()
	if !session.IsActive() || session.Phase != entity.SessionPhase1 ||
		session.Phase1TransitionScheduledAt == nil || session.Phase1TransitionScheduledAt.After(now) {
		return &TransitionResult{}, nil
	}

	activeCount, err := e.proposalRepo.Count(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.ProposalWithStatus{Status: entity.ProposalStatusActive})
	if err != nil {
		return nil, err
	}
	if activeCount < MinActiveProposals {
		return nil, ErrNotEnoughProposals
	}

	won, err := e.sessionRepo.ClaimPhase1Transition(ctx, session.Id, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return &TransitionResult{}, nil
	}

	result, err := e.execute(ctx, session)
	if err != nil {
		// The claim is spent; nothing will retry this automatically.
		e.log.Error("lifecycle", "phase transition failed after claim", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return nil, err
	}
	return result, nil
}

func (e *PhaseTransitionExecutor) execute(ctx context.Context, session *entity.Session) (*TransitionResult, error) {
	// Rebuild aggregates from the ratings table so the ranking reflects every
	// write, including ones racing the claim.
	if err := e.proposalRepo.RecomputeAggregates(ctx, session.Id); err != nil {
		return nil, err
	}

	ranked, err := e.proposalRepo.FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.ProposalWithStatus{Status: entity.ProposalStatusActive},
		specification.ByRatingRank{})
	if err != nil {
		return nil, err
	}
	if len(ranked) < MinActiveProposals {
		return nil, ErrDegradedSession
	}

	topCount := SurvivorCutoff(len(ranked))
	if session.CustomTopCount != nil && *session.CustomTopCount >= MinActiveProposals && *session.CustomTopCount <= len(ranked) {
		topCount = *session.CustomTopCount
	}

	promoted := make([]uuid.UUID, 0, topCount)
	archived := make([]uuid.UUID, 0, len(ranked)-topCount)
	for i, p := range ranked {
		if i < topCount {
			promoted = append(promoted, p.Id)
		} else {
			archived = append(archived, p.Id)
		}
	}
	if err := e.proposalRepo.UpdateStatusByIDs(ctx, promoted, entity.ProposalStatusTop3); err != nil {
		return nil, err
	}
	if len(archived) > 0 {
		if err := e.proposalRepo.UpdateStatusByIDs(ctx, archived, entity.ProposalStatusArchived); err != nil {
			return nil, err
		}
	}

	// Freeze the phase2 quorum universe at this instant: stamp the current
	// participant rows, so later joiners can vote without moving the quorum.
	participants, err := e.sessionRepo.MarkPhase1Universe(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	session.Phase = entity.SessionPhase2
	now := e.now()
	session.Phase2StartedAt = &now
	session.Phase1TransitionScheduledAt = nil
	session.Phase1ParticipantCount = int(participants)
	if err := e.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	e.log.Info("lifecycle", "session entered phase2", map[string]interface{}{
		"session_id":   session.Id.String(),
		"top_count":    topCount,
		"archived":     len(archived),
		"participants": participants,
	})
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, events.PhaseChanged{
			SessionId:  session.Id,
			FromPhase:  entity.SessionPhase1,
			ToPhase:    entity.SessionPhase2,
			OccurredAt: now,
		}); err != nil {
			e.log.Warn("lifecycle", "event publish failed", map[string]interface{}{
				"event_type": events.TypePhaseChanged,
				"error":      err.Error(),
			})
		}
	}

	return &TransitionResult{
		Executed:      true,
		TopCount:      topCount,
		PromotedCount: len(promoted),
		ArchivedCount: len(archived),
	}, nil
}
