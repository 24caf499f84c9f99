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

// ResultNotifier delivers session results to participants (mail queue).
// Failures are logged, never propagated; the close itself must not depend on
// delivery.
type ResultNotifier interface {
	NotifyResults(ctx context.Context, session *entity.Session, winners []*entity.TopProposal) error
}

// CloseResult reports what closing did: either the session is now terminal
// with its winner snapshots, or a tiebreaker round was started instead.
type CloseResult struct {
	Closed            bool
	TiebreakerStarted bool
	Winners           []*entity.TopProposal
}

// SessionCloser applies the winner-selection rules and moves a session to its
// terminal state. Callers are expected to hold a termination or tiebreaker
// claim; Close itself is idempotent against an already-closed session.
type SessionCloser struct {
	sessionRepo     contract.SessionRepository
	proposalRepo    contract.ProposalRepository
	voteRepo        contract.VoteRepository
	topProposalRepo contract.TopProposalRepository
	publisher       EventPublisher
	notifier        ResultNotifier
	log             logger.ILogger

	now timeNow
}

func NewSessionCloser(
	sessionRepo contract.SessionRepository,
	proposalRepo contract.ProposalRepository,
	voteRepo contract.VoteRepository,
	topProposalRepo contract.TopProposalRepository,
	publisher EventPublisher,
	notifier ResultNotifier,
	log logger.ILogger,
) *SessionCloser {
	return &SessionCloser{
		sessionRepo:     sessionRepo,
		proposalRepo:    proposalRepo,
		voteRepo:        voteRepo,
		topProposalRepo: topProposalRepo,
		publisher:       publisher,
		notifier:        notifier,
		log:             log,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Close tallies votes, selects winners, snapshots them and closes the
// session. In single-result mode a fresh tie instead activates one
// supplementary voting round and returns without closing.
func (c *SessionCloser) Close(ctx context.Context, sessionId uuid.UUID) (*CloseResult, error) {
	session, err := c.sessionRepo.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.IsActive() {
		return &CloseResult{}, nil
	}

	candidates, err := c.candidates(ctx, session)
	if err != nil {
		return nil, err
	}
	tallies, err := c.voteRepo.TallyBySession(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	var winners []*entity.Proposal
	if session.SingleResultMode {
		outcome := ResolveSingleResult(session, candidates, tallies)
		if outcome.StartRound {
			return c.startTiebreaker(ctx, session, outcome.CandidateIds)
		}
		winners = outcome.Winners
	} else {
		// Majority mode: every candidate with strictly more yes than no votes
		// wins independently. Zero winners is a valid outcome.
		for _, p := range candidates {
			if t := tallies[p.Id]; t.YesVotes > t.NoVotes {
				winners = append(winners, p)
			}
		}
	}

	snapshots, err := c.snapshotWinners(ctx, session, winners, tallies)
	if err != nil {
		return nil, err
	}

	if err := c.proposalRepo.ArchiveBySession(ctx, session.Id); err != nil {
		return nil, err
	}

	closedAt := c.now()
	session.Status = entity.SessionStatusClosed
	session.Phase = entity.SessionPhaseClosed
	session.TiebreakerActive = false
	session.TiebreakerScheduledAt = nil
	session.EndedAt = &closedAt
	if err := c.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	c.log.Info("lifecycle", "session closed", map[string]interface{}{
		"session_id": session.Id.String(),
		"winners":    len(snapshots),
	})
	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, events.SessionClosed{
			SessionId:   session.Id,
			WinnerCount: len(snapshots),
			OccurredAt:  closedAt,
		}); err != nil {
			c.log.Warn("lifecycle", "event publish failed", map[string]interface{}{
				"event_type": events.TypeSessionClosed,
				"error":      err.Error(),
			})
		}
	}
	if c.notifier != nil {
		if err := c.notifier.NotifyResults(ctx, session, snapshots); err != nil {
			c.log.Warn("lifecycle", "result notification failed", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		}
	}

	return &CloseResult{Closed: true, Winners: snapshots}, nil
}

// candidates returns the proposals eligible to win: the phase1 survivors,
// narrowed to the stored candidate set while a tiebreaker is active.
func (c *SessionCloser) candidates(ctx context.Context, session *entity.Session) ([]*entity.Proposal, error) {
	if session.TiebreakerActive && len(session.TiebreakerCandidateIds) > 0 {
		return c.proposalRepo.FindAll(ctx, specification.ByIDs{IDs: session.TiebreakerCandidateIds})
	}
	return c.proposalRepo.FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.ProposalWithStatus{Status: entity.ProposalStatusTop3})
}

func (c *SessionCloser) startTiebreaker(ctx context.Context, session *entity.Session, candidateIds []uuid.UUID) (*CloseResult, error) {
	at := c.now().Add(TiebreakerRoundDelay)
	if err := c.sessionRepo.ActivateTiebreaker(ctx, session.Id, candidateIds, at); err != nil {
		return nil, err
	}

	c.log.Info("lifecycle", "tiebreaker round started", map[string]interface{}{
		"session_id": session.Id.String(),
		"candidates": len(candidateIds),
	})
	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, events.TiebreakerStarted{
			SessionId:    session.Id,
			CandidateIds: candidateIds,
			ScheduledAt:  at,
			OccurredAt:   c.now(),
		}); err != nil {
			c.log.Warn("lifecycle", "event publish failed", map[string]interface{}{
				"event_type": events.TypeTiebreakerStarted,
				"error":      err.Error(),
			})
		}
	}
	return &CloseResult{TiebreakerStarted: true}, nil
}

// snapshotWinners writes one immutable TopProposal per winner, guarded by
// Exists so a re-entrant close never duplicates records.
func (c *SessionCloser) snapshotWinners(ctx context.Context, session *entity.Session, winners []*entity.Proposal, tallies map[uuid.UUID]contract.VoteTally) ([]*entity.TopProposal, error) {
	snapshots := make([]*entity.TopProposal, 0, len(winners))
	for _, w := range winners {
		exists, err := c.topProposalRepo.Exists(ctx, session.Id, w.Id)
		if err != nil {
			return nil, err
		}
		t := tallies[w.Id]
		snapshot := &entity.TopProposal{
			Id:         uuid.New(),
			SessionId:  session.Id,
			ProposalId: w.Id,
			Title:      w.Title,
			Content:    w.Content,
			YesVotes:   t.YesVotes,
			NoVotes:    t.NoVotes,
		}
		if !exists {
			if err := c.topProposalRepo.Create(ctx, snapshot); err != nil {
				return nil, err
			}
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}
