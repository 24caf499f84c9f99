package contract

import (
	"context"

	"agora-be/internal/entity"
	"agora-be/internal/repository/specification"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comment, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
