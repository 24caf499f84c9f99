package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateProposalRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Title     string    `json:"title" validate:"required,min=3,max=255"`
	Content   string    `json:"content" validate:"required"`
}

type CreateProposalResponse struct {
	Id uuid.UUID `json:"id"`
}

type ProposalResponse struct {
	Id            uuid.UUID `json:"id"`
	SessionId     uuid.UUID `json:"session_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Status        string    `json:"status"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type RateProposalRequest struct {
	Value int `json:"value" validate:"required,min=1,max=5"`
}

// RateProposalResponse reports the new aggregate plus whatever the rating did
// to the phase countdown.
type RateProposalResponse struct {
	AverageRating    float64    `json:"average_rating"`
	RatingCount      int        `json:"rating_count"`
	TransitionAt     *time.Time `json:"transition_at,omitempty"`
	SecondsRemaining int        `json:"seconds_remaining"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type CommentResponse struct {
	Id        uuid.UUID `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
