package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"agora-be/internal/entity"
	"agora-be/internal/model"
	"agora-be/internal/repository/contract"
	"agora-be/internal/repository/implementation"
	"agora-be/internal/repository/specification"
	"agora-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database capped at a single connection,
// which serializes the conditional UPDATEs the same way a shared postgres
// instance does and keeps the concurrency tests deterministic.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.SessionParticipant{},
		&model.Proposal{},
		&model.Rating{},
		&model.Comment{},
		&model.Vote{},
		&model.TopProposal{},
	))
	return db
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type harness struct {
	db        *gorm.DB
	sessions  contract.SessionRepository
	proposals contract.ProposalRepository
	ratings   contract.RatingRepository
	votes     contract.VoteRepository
	tops      contract.TopProposalRepository

	tracker    *ParticipationTracker
	scheduler  *TransitionScheduler
	terminator *TerminationScheduler
	executor   *PhaseTransitionExecutor
	closer     *SessionCloser
	termExec   *TerminationExecutor
	pub        *capturePublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)

	h := &harness{
		db:        db,
		sessions:  implementation.NewSessionRepository(db),
		proposals: implementation.NewProposalRepository(db),
		ratings:   implementation.NewRatingRepository(db),
		votes:     implementation.NewVoteRepository(db),
		tops:      implementation.NewTopProposalRepository(db),
		pub:       &capturePublisher{},
	}
	h.tracker = NewParticipationTracker(h.proposals, h.ratings, h.votes, h.sessions, 72*time.Hour)
	h.scheduler = NewTransitionScheduler(h.sessions, h.tracker, h.pub, nopLogger{})
	h.terminator = NewTerminationScheduler(h.sessions, h.tracker, h.pub, nopLogger{})
	h.executor = NewPhaseTransitionExecutor(h.sessions, h.proposals, h.pub, nopLogger{})
	h.closer = NewSessionCloser(h.sessions, h.proposals, h.votes, h.tops, h.pub, nil, nopLogger{})
	h.termExec = NewTerminationExecutor(h.sessions, h.closer, nopLogger{})
	return h
}

func (h *harness) newSession(t *testing.T, singleResult bool) *entity.Session {
	t.Helper()
	s := &entity.Session{
		Id:               uuid.New(),
		Title:            "quarterly planning",
		Phase:            entity.SessionPhase1,
		Status:           entity.SessionStatusActive,
		Variant:          entity.SessionVariantStandard,
		SingleResultMode: singleResult,
		CreatedBy:        uuid.New(),
	}
	require.NoError(t, h.sessions.Create(context.Background(), s))
	return s
}

func (h *harness) addProposal(t *testing.T, sessionId uuid.UUID, title string) *entity.Proposal {
	t.Helper()
	p := &entity.Proposal{
		Id:        uuid.New(),
		SessionId: sessionId,
		UserId:    uuid.New(),
		Title:     title,
		Content:   "details for " + title,
		Status:    entity.ProposalStatusActive,
	}
	require.NoError(t, h.proposals.Create(context.Background(), p))
	return p
}

// rate files a rating and registers the rater as a participant, the same two
// writes the proposal service performs.
func (h *harness) rate(t *testing.T, session *entity.Session, proposal *entity.Proposal, userId uuid.UUID, value int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.ratings.Upsert(ctx, &entity.Rating{
		Id:         uuid.New(),
		ProposalId: proposal.Id,
		SessionId:  session.Id,
		UserId:     userId,
		Value:      value,
	}))
	require.NoError(t, h.sessions.AddParticipant(ctx, &entity.SessionParticipant{
		SessionId: session.Id,
		UserId:    userId,
	}))
	require.NoError(t, h.proposals.RecomputeAggregates(ctx, session.Id))
}

func (h *harness) vote(t *testing.T, session *entity.Session, proposal *entity.Proposal, userId uuid.UUID, inFavor bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.votes.Upsert(ctx, &entity.Vote{
		Id:         uuid.New(),
		SessionId:  session.Id,
		ProposalId: proposal.Id,
		UserId:     userId,
		InFavor:    inFavor,
	}))
	require.NoError(t, h.sessions.AddParticipant(ctx, &entity.SessionParticipant{
		SessionId: session.Id,
		UserId:    userId,
	}))
}

func (h *harness) reload(t *testing.T, sessionId uuid.UUID) *entity.Session {
	t.Helper()
	s, err := h.sessions.FindOne(context.Background(), byID(sessionId))
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

// enterPhase2 walks a session through a real phase1 exit: n proposals, full
// participation, due countdown, executed transition.
func (h *harness) enterPhase2(t *testing.T, session *entity.Session, proposalCount int) []*entity.Proposal {
	t.Helper()
	survivors, _ := h.enterPhase2Universe(t, session, proposalCount)
	return survivors
}

// enterPhase2Universe is enterPhase2 plus the identities of the phase1
// raters, for tests that need quorum-eligible voters.
func (h *harness) enterPhase2Universe(t *testing.T, session *entity.Session, proposalCount int) ([]*entity.Proposal, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	proposals := make([]*entity.Proposal, proposalCount)
	for i := 0; i < proposalCount; i++ {
		proposals[i] = h.addProposal(t, session.Id, "proposal")
	}
	// Descending ratings so the ranking follows slice order; one rater per
	// proposal, so the raters are the frozen quorum universe.
	raters := make([]uuid.UUID, proposalCount)
	for i, p := range proposals {
		raters[i] = uuid.New()
		h.rate(t, session, p, raters[i], max(5-i, 1))
	}

	past := time.Now().Add(-time.Second).UTC()
	won, err := h.sessions.SchedulePhase1Transition(ctx, session.Id, past)
	require.NoError(t, err)
	require.True(t, won)

	res, err := h.executor.ExecuteDue(ctx, session.Id)
	require.NoError(t, err)
	require.True(t, res.Executed)

	survivors, err := h.proposals.FindAll(ctx,
		bySessionID(session.Id), withStatus(entity.ProposalStatusTop3), byRatingRank())
	require.NoError(t, err)
	return survivors, raters
}

func byID(id uuid.UUID) specification.Specification { return specification.ByID{ID: id} }

func bySessionID(id uuid.UUID) specification.Specification {
	return specification.BySessionID{SessionID: id}
}

func withStatus(status string) specification.Specification {
	return specification.ProposalWithStatus{Status: status}
}

func byRatingRank() specification.Specification { return specification.ByRatingRank{} }
