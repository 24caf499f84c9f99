package contract

import (
	"context"

	"agora-be/internal/entity"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
)

// VoteTally is the aggregated yes/no count for one proposal.
type VoteTally struct {
	ProposalId uuid.UUID
	YesVotes   int
	NoVotes    int
}

func (t VoteTally) Result() int {
	return t.YesVotes - t.NoVotes
}

type VoteRepository interface {
	// Upsert creates the vote or flips an existing one (unique per
	// session+proposal+user; participants may revise during phase2 and
	// tiebreaker rounds).
	Upsert(ctx context.Context, vote *entity.Vote) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Vote, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Vote, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// CountDistinctVoters counts participants who cast at least one final
	// vote in the session.
	CountDistinctVoters(ctx context.Context, sessionId uuid.UUID) (int64, error)

	// CountDistinctUniverseVoters counts voters who belong to the quorum
	// universe stamped at phase1 exit. Late joiners may vote, and their
	// ballots count in the tallies, but they never move the quorum.
	CountDistinctUniverseVoters(ctx context.Context, sessionId uuid.UUID) (int64, error)

	// TallyBySession aggregates yes/no counts per proposal.
	TallyBySession(ctx context.Context, sessionId uuid.UUID) (map[uuid.UUID]VoteTally, error)
}
