package lifecycle

import (
	"context"
	"time"

	"agora-be/internal/entity"
	"agora-be/internal/pkg/logger"
	"agora-be/internal/repository/contract"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
)

// TerminationResult reports what a due-termination sweep did. Exactly one of
// the concurrent callers gets Executed=true; everyone else no-ops.
type TerminationResult struct {
	Executed          bool
	TiebreakerStarted bool
	Winners           []*entity.TopProposal
}

// TerminationExecutor closes a session once its termination countdown (or a
// pending tiebreaker round) is due. Like the phase executor it rides on read
// traffic; the claim decides the single closer.
type TerminationExecutor struct {
	sessionRepo contract.SessionRepository
	closer      *SessionCloser
	log         logger.ILogger

	now func() time.Time
}

func NewTerminationExecutor(sessionRepo contract.SessionRepository, closer *SessionCloser, log logger.ILogger) *TerminationExecutor {
	return &TerminationExecutor{
		sessionRepo: sessionRepo,
		closer:      closer,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteDue claims whichever countdown is due, the phase2 termination or a
// tiebreaker round, and hands the session to the closer. The closer may start
// a tiebreaker instead of closing; the next due sweep then takes the
// tiebreaker-round path.
func (e *TerminationExecutor) ExecuteDue(ctx context.Context, sessionId uuid.UUID) (*TerminationResult, error) {
	session, err := e.sessionRepo.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.IsActive() || session.Phase != entity.SessionPhase2 {
		return &TerminationResult{}, nil
	}

	now := e.now()
	var won bool
	switch {
	case session.Phase2TerminationScheduledAt != nil && !session.Phase2TerminationScheduledAt.After(now):
		won, err = e.sessionRepo.ClaimTermination(ctx, session.Id, now)
	case session.TiebreakerActive && session.TiebreakerScheduledAt != nil && !session.TiebreakerScheduledAt.After(now):
		won, err = e.sessionRepo.ClaimTiebreakerRound(ctx, session.Id, now)
	default:
		return &TerminationResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !won {
		return &TerminationResult{}, nil
	}

	result, err := e.closer.Close(ctx, session.Id)
	if err != nil {
		e.log.Error("lifecycle", "session close failed after claim", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return nil, err
	}
	return &TerminationResult{
		Executed:          result.Closed || result.TiebreakerStarted,
		TiebreakerStarted: result.TiebreakerStarted,
		Winners:           result.Winners,
	}, nil
}
