package lifecycle

import (
	"context"
	"fmt"
	"time"

	"agora-be/internal/entity"
	"agora-be/internal/repository/contract"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Progress is a point-in-time participation snapshot for a session. It is
// advisory only: scheduling decisions re-read the database, never the cache.
type Progress struct {
	SessionId          uuid.UUID `json:"session_id"`
	Phase              string    `json:"phase"`
	ActiveProposals    int64     `json:"active_proposals"`
	RatedProposals     int64     `json:"rated_proposals"`
	Participants       int64     `json:"participants"`
	ParticipantsActed  int64     `json:"participants_acted"`
	ConditionMet       bool      `json:"condition_met"`
	TimeLimitExceeded  bool      `json:"time_limit_exceeded"`
	TransitionDeadline *time.Time `json:"transition_deadline,omitempty"`
}

// ParticipationTracker computes phase exit conditions from live counts. A
// short-lived cache absorbs poll bursts on the read-only progress endpoint;
// Fresh* variants bypass it and are what the schedulers call.
type ParticipationTracker struct {
	proposalRepo    contract.ProposalRepository
	ratingRepo      contract.RatingRepository
	voteRepo        contract.VoteRepository
	sessionRepo     contract.SessionRepository
	phase2TimeLimit time.Duration
	cache           *gocache.Cache
}

func NewParticipationTracker(
	proposalRepo contract.ProposalRepository,
	ratingRepo contract.RatingRepository,
	voteRepo contract.VoteRepository,
	sessionRepo contract.SessionRepository,
	phase2TimeLimit time.Duration,
) *ParticipationTracker {
	return &ParticipationTracker{
		proposalRepo:    proposalRepo,
		ratingRepo:      ratingRepo,
		voteRepo:        voteRepo,
		sessionRepo:     sessionRepo,
		phase2TimeLimit: phase2TimeLimit,
		cache:           gocache.New(2*time.Second, time.Minute),
	}
}

// Progress returns the cached snapshot when one is fresh, otherwise computes
// and caches a new one.
func (t *ParticipationTracker) Progress(ctx context.Context, session *entity.Session) (*Progress, error) {
	key := fmt.Sprintf("%s:%s", session.Id, session.Phase)
	if cached, ok := t.cache.Get(key); ok {
		return cached.(*Progress), nil
	}
	p, err := t.FreshProgress(ctx, session)
	if err != nil {
		return nil, err
	}
	t.cache.Set(key, p, gocache.DefaultExpiration)
	return p, nil
}

// FreshProgress always hits the database.
func (t *ParticipationTracker) FreshProgress(ctx context.Context, session *entity.Session) (*Progress, error) {
	switch session.Phase {
	case entity.SessionPhase1:
		return t.phase1Progress(ctx, session)
	case entity.SessionPhase2:
		return t.phase2Progress(ctx, session)
	default:
		return &Progress{SessionId: session.Id, Phase: session.Phase}, nil
	}
}

// phase1Progress: the rating phase exits when the session holds at least two
// active proposals AND >=75% of them have received a rating AND >=75% of the
// current participants have rated at least once.
func (t *ParticipationTracker) phase1Progress(ctx context.Context, session *entity.Session) (*Progress, error) {
	active, err := t.proposalRepo.Count(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.ProposalWithStatus{Status: entity.ProposalStatusActive})
	if err != nil {
		return nil, err
	}
	rated, err := t.proposalRepo.Count(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.ProposalWithStatus{Status: entity.ProposalStatusActive},
		specification.ProposalRated{})
	if err != nil {
		return nil, err
	}
	participants, err := t.sessionRepo.CountParticipants(ctx, session.Id)
	if err != nil {
		return nil, err
	}
	raters, err := t.ratingRepo.CountDistinctRaters(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		SessionId:          session.Id,
		Phase:              entity.SessionPhase1,
		ActiveProposals:    active,
		RatedProposals:     rated,
		Participants:       participants,
		ParticipantsActed:  raters,
		TransitionDeadline: session.Phase1TransitionScheduledAt,
	}
	p.ConditionMet = active >= MinActiveProposals &&
		meetsThreshold(rated, active) &&
		meetsThreshold(raters, participants)
	return p, nil
}

// phase2Progress: the voting phase exits when >=75% of the participant
// universe frozen at phase1 exit have voted, or the configured time limit
// since phase2 start has elapsed. Both sides of the quorum come from the
// frozen universe: votes by users who joined during phase2 still count in
// the tallies but never toward the exit condition.
func (t *ParticipationTracker) phase2Progress(ctx context.Context, session *entity.Session) (*Progress, error) {
	candidates, err := t.proposalRepo.Count(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.ProposalWithStatus{Status: entity.ProposalStatusTop3})
	if err != nil {
		return nil, err
	}
	voters, err := t.voteRepo.CountDistinctUniverseVoters(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		SessionId:          session.Id,
		Phase:              entity.SessionPhase2,
		ActiveProposals:    candidates,
		Participants:       int64(session.Phase1ParticipantCount),
		ParticipantsActed:  voters,
		TransitionDeadline: session.Phase2TerminationScheduledAt,
	}
	if session.Phase2StartedAt != nil && time.Since(*session.Phase2StartedAt) >= t.phase2TimeLimit {
		p.TimeLimitExceeded = true
	}
	p.ConditionMet = meetsThreshold(voters, p.Participants) || p.TimeLimitExceeded
	return p, nil
}

// meetsThreshold reports acted/total >= ParticipationThreshold, with an empty
// universe counting as unmet (a session nobody touched never auto-advances).
func meetsThreshold(acted, total int64) bool {
	if total <= 0 {
		return false
	}
	return float64(acted) >= ParticipationThreshold*float64(total)
}
