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

// ScheduleOutcome describes the countdown state after a scheduling attempt.
// Committed is true only for the single call that actually set the timestamp;
// every concurrent loser still gets the resulting ScheduledAt back.
type ScheduleOutcome struct {
	Committed   bool
	ScheduledAt *time.Time
}

func (o *ScheduleOutcome) SecondsRemaining(now time.Time) int {
	if o.ScheduledAt == nil {
		return 0
	}
	s := int(o.ScheduledAt.Sub(now).Seconds())
	if s < 0 {
		return 0
	}
	return s
}

// TransitionScheduler commits the phase1->phase2 countdown. It is invoked
// after every rating write and from the admin force endpoint; any number of
// overlapping calls converge on exactly one committed timestamp.
type TransitionScheduler struct {
	sessionRepo contract.SessionRepository
	tracker     *ParticipationTracker
	publisher   EventPublisher
	log         logger.ILogger
}

func NewTransitionScheduler(
	sessionRepo contract.SessionRepository,
	tracker *ParticipationTracker,
	publisher EventPublisher,
	log logger.ILogger,
) *TransitionScheduler {
	return &TransitionScheduler{
		sessionRepo: sessionRepo,
		tracker:     tracker,
		publisher:   publisher,
		log:         log,
	}
}

// CheckAndSchedule re-evaluates the phase1 exit condition and, when it holds,
// schedules the transition 90 seconds out. No-ops (without error) when the
// session already left phase1 or a countdown is already committed.
func (s *TransitionScheduler) CheckAndSchedule(ctx context.Context, sessionId uuid.UUID) (*ScheduleOutcome, error) {
	session, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() || session.Phase != entity.SessionPhase1 {
		return &ScheduleOutcome{}, nil
	}
	if session.Phase1TransitionScheduledAt != nil {
		return &ScheduleOutcome{ScheduledAt: session.Phase1TransitionScheduledAt}, nil
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

// ForceSchedule is the admin override: it skips the participation check but
// still requires at least two active proposals, and is idempotent against an
// existing countdown.
func (s *TransitionScheduler) ForceSchedule(ctx context.Context, sessionId uuid.UUID) (*ScheduleOutcome, error) {
	session, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() || session.Phase != entity.SessionPhase1 {
		return nil, ErrWrongPhase
	}
	if session.Phase1TransitionScheduledAt != nil {
		return &ScheduleOutcome{ScheduledAt: session.Phase1TransitionScheduledAt}, nil
	}

	progress, err := s.tracker.FreshProgress(ctx, session)
	if err != nil {
		return nil, err
	}
	if progress.ActiveProposals < MinActiveProposals {
		return nil, ErrNotEnoughProposals
	}
	return s.commit(ctx, session)
}

func (s *TransitionScheduler) commit(ctx context.Context, session *entity.Session) (*ScheduleOutcome, error) {
	at := time.Now().Add(Phase1TransitionDelay).UTC()
	won, err := s.sessionRepo.SchedulePhase1Transition(ctx, session.Id, at)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent caller committed first; report their timestamp.
		fresh, err := s.load(ctx, session.Id)
		if err != nil {
			return nil, err
		}
		return &ScheduleOutcome{ScheduledAt: fresh.Phase1TransitionScheduledAt}, nil
	}

	s.log.Info("lifecycle", "phase1 transition scheduled", map[string]interface{}{
		"session_id":   session.Id.String(),
		"scheduled_at": at,
	})
	s.publish(ctx, events.TransitionScheduled{
		SessionId:   session.Id,
		ScheduledAt: at,
		OccurredAt:  time.Now().UTC(),
	})
	return &ScheduleOutcome{Committed: true, ScheduledAt: &at}, nil
}

// AdjustSurvivorCount applies an admin delta to the cutoff while the phase1
// countdown is running. The resulting count must stay within
// [2, activeProposals].
func (s *TransitionScheduler) AdjustSurvivorCount(ctx context.Context, sessionId uuid.UUID, delta int) (int, error) {
	session, err := s.load(ctx, sessionId)
	if err != nil {
		return 0, err
	}
	if !session.IsActive() || session.Phase != entity.SessionPhase1 || session.Phase1TransitionScheduledAt == nil {
		return 0, ErrCountdownNotActive
	}

	progress, err := s.tracker.FreshProgress(ctx, session)
	if err != nil {
		return 0, err
	}
	active := int(progress.ActiveProposals)

	current := SurvivorCutoff(active)
	if session.CustomTopCount != nil {
		current = *session.CustomTopCount
	}
	next := current + delta
	if next < MinActiveProposals || next > active {
		return 0, ErrInvalidTopCount
	}

	// Conditional write of the one column: if the transition executor claimed
	// the countdown between our read and this point, the update matches no
	// row and the stale snapshot never touches the session.
	won, err := s.sessionRepo.SetCustomTopCount(ctx, session.Id, next)
	if err != nil {
		return 0, err
	}
	if !won {
		return 0, ErrCountdownNotActive
	}
	s.log.Info("lifecycle", "survivor count adjusted", map[string]interface{}{
		"session_id": session.Id.String(),
		"top_count":  next,
	})
	return next, nil
}

func (s *TransitionScheduler) load(ctx context.Context, sessionId uuid.UUID) (*entity.Session, error) {
	session, err := s.sessionRepo.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *TransitionScheduler) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("lifecycle", "event publish failed", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}
