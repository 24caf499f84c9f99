package contract

import (
	"context"

	"agora-be/internal/entity"
	"agora-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RatingRepository interface {
	// Upsert creates the rating or updates the value of an existing one
	// (unique per proposal+user).
	Upsert(ctx context.Context, rating *entity.Rating) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Rating, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Rating, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// CountDistinctRaters counts the participants who cast at least one
	// rating in the session.
	CountDistinctRaters(ctx context.Context, sessionId uuid.UUID) (int64, error)
}
