package controller

import (
	"errors"

	"agora-be/internal/pkg/serverutils"
	"agora-be/internal/service"
	"agora-be/pkg/lifecycle"

	"github.com/gofiber/fiber/v2"
)

// respondServiceError maps service and engine sentinels onto HTTP codes so
// every controller speaks the same envelope.
func respondServiceError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrProposalNotFound),
		errors.Is(err, lifecycle.ErrSessionNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))

	case errors.Is(err, service.ErrActiveSessionExists):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))

	case errors.Is(err, service.ErrSessionNotActive),
		errors.Is(err, service.ErrProposingClosed),
		errors.Is(err, service.ErrRatingClosed),
		errors.Is(err, service.ErrVotingClosed),
		errors.Is(err, service.ErrSelfRating),
		errors.Is(err, service.ErrNotACandidate),
		errors.Is(err, service.ErrOutsideTiebreakSet),
		errors.Is(err, lifecycle.ErrWrongPhase),
		errors.Is(err, lifecycle.ErrCountdownNotActive),
		errors.Is(err, lifecycle.ErrNotEnoughProposals),
		errors.Is(err, lifecycle.ErrInvalidTopCount):
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))

	case errors.Is(err, service.ErrEmailTaken):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, service.ErrInvalidOTP):
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, err.Error()))

	case errors.Is(err, lifecycle.ErrDegradedSession):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
}
