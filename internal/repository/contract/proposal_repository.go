package contract

import (
	"context"

	"agora-be/internal/entity"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ProposalRepository interface {
	Create(ctx context.Context, proposal *entity.Proposal) error
	Update(ctx context.Context, proposal *entity.Proposal) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Proposal, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Proposal, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateStatusByIDs moves a batch of proposals to a new status in one
	// statement (cutoff promotion/archival).
	UpdateStatusByIDs(ctx context.Context, ids []uuid.UUID, status string) error

	// ArchiveBySession moves every proposal of the session to archived.
	ArchiveBySession(ctx context.Context, sessionId uuid.UUID) error

	// RecomputeAggregates backfills average_rating and rating_count from the
	// ratings table for every proposal in the session.
	RecomputeAggregates(ctx context.Context, sessionId uuid.UUID) error
}
