package unitofwork

import (
	"context"

	"agora-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SessionRepository() contract.SessionRepository
	ProposalRepository() contract.ProposalRepository
	RatingRepository() contract.RatingRepository
	VoteRepository() contract.VoteRepository
	CommentRepository() contract.CommentRepository
	TopProposalRepository() contract.TopProposalRepository
}
