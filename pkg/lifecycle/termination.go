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

// TerminationScheduler commits the phase2->closed countdown, invoked after
// every vote write and from the admin force endpoint. Same single-winner
// convergence as the phase1 scheduler.
type TerminationScheduler struct {
	sessionRepo contract.SessionRepository
	tracker     *ParticipationTracker
	publisher   EventPublisher
	log         logger.ILogger
}

func NewTerminationScheduler(
	sessionRepo contract.SessionRepository,
	tracker *ParticipationTracker,
	publisher EventPublisher,
	log logger.ILogger,
) *TerminationScheduler {
	return &TerminationScheduler{
		sessionRepo: sessionRepo,
		tracker:     tracker,
		publisher:   publisher,
		log:         log,
	}
}

// CheckAndSchedule re-evaluates the phase2 exit condition (voting quorum over
// the frozen participant universe, or the time limit) and schedules
// termination 60 seconds out when it holds.
func (s *TerminationScheduler) CheckAndSchedule(ctx context.Context, sessionId uuid.UUID) (*ScheduleOutcome, error) {
	session, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() || session.Phase != entity.SessionPhase2 {
		return &ScheduleOutcome{}, nil
	}
	if session.Phase2TerminationScheduledAt != nil {
		return &ScheduleOutcome{ScheduledAt: session.Phase2TerminationScheduledAt}, nil
	}

	progress, err := s.tracker.FreshProgress(ctx, session)
	if err != nil {
		return nil, err
	}
	if !progress.ConditionMet {
		return &ScheduleOutcome{}, nil
	}
	return s.commit(ctx, session)
}

// ForceSchedule is the admin override for phase2.
func (s *TerminationScheduler) ForceSchedule(ctx context.Context, sessionId uuid.UUID) (*ScheduleOutcome, error) {
	session, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() || session.Phase != entity.SessionPhase2 {
		return nil, ErrWrongPhase
	}
	if session.Phase2TerminationScheduledAt != nil {
		return &ScheduleOutcome{ScheduledAt: session.Phase2TerminationScheduledAt}, nil
	}
	return s.commit(ctx, session)
}

func (s *TerminationScheduler) commit(ctx context.Context, session *entity.Session) (*ScheduleOutcome, error) {
	at := time.Now().Add(TerminationDelay).UTC()
	won, err := s.sessionRepo.ScheduleTermination(ctx, session.Id, at)
	if err != nil {
		return nil, err
	}
	if !won {
		fresh, err := s.load(ctx, session.Id)
		if err != nil {
			return nil, err
		}
		return &ScheduleOutcome{ScheduledAt: fresh.Phase2TerminationScheduledAt}, nil
	}

	s.log.Info("lifecycle", "termination scheduled", map[string]interface{}{
		"session_id":   session.Id.String(),
		"scheduled_at": at,
	})
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.TerminationScheduled{
			SessionId:   session.Id,
			ScheduledAt: at,
			OccurredAt:  time.Now().UTC(),
		}); err != nil {
			s.log.Warn("lifecycle", "event publish failed", map[string]interface{}{
				"event_type": events.TypeTerminationScheduled,
				"error":      err.Error(),
			})
		}
	}
	return &ScheduleOutcome{Committed: true, ScheduledAt: &at}, nil
}

func (s *TerminationScheduler) load(ctx context.Context, sessionId uuid.UUID) (*entity.Session, error) {
	session, err := s.sessionRepo.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
