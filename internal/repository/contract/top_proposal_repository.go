package contract

import (
	"context"

	"agora-be/internal/entity"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TopProposalRepository interface {
	// Create writes one winner snapshot. The (session_id, proposal_id)
	// unique index plus the Exists check keep closeSession re-runs from
	// duplicating snapshots.
	Create(ctx context.Context, topProposal *entity.TopProposal) error
	Exists(ctx context.Context, sessionId, proposalId uuid.UUID) (bool, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TopProposal, error)
}
