package lifecycle

import (
	"agora-be/internal/entity"
	"agora-be/internal/repository/contract"

	"github.com/google/uuid"
)

// TieBreakOutcome is the single-result-mode decision: either a definitive
// winner set, or the instruction to run one supplementary voting round over
// the narrowed candidates.
type TieBreakOutcome struct {
	Winners      []*entity.Proposal
	StartRound   bool
	CandidateIds []uuid.UUID
}

// ResolveSingleResult ranks candidates by net result (yes minus no) and
// detects ties at the top. A tie triggers at most one supplementary round per
// session: when the session's tiebreaker already ran, a persisting tie is
// broken by accepting the whole tied set as co-winners.
func ResolveSingleResult(session *entity.Session, candidates []*entity.Proposal, tallies map[uuid.UUID]contract.VoteTally) TieBreakOutcome {
	if len(candidates) == 0 {
		return TieBreakOutcome{}
	}

	best := tallies[candidates[0].Id].Result()
	for _, c := range candidates[1:] {
		if r := tallies[c.Id].Result(); r > best {
			best = r
		}
	}

	tied := make([]*entity.Proposal, 0, 1)
	for _, c := range candidates {
		if tallies[c.Id].Result() == best {
			tied = append(tied, c)
		}
	}

	if len(tied) > 1 && !session.TiebreakerActive {
		ids := make([]uuid.UUID, len(tied))
		for i, p := range tied {
			ids[i] = p.Id
		}
		return TieBreakOutcome{StartRound: true, CandidateIds: ids}
	}
	return TieBreakOutcome{Winners: tied}
}
