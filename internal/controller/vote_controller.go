package controller

import (
	"agora-be/internal/dto"
	"agora-be/internal/pkg/serverutils"
	"agora-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IVoteController interface {
	RegisterRoutes(r fiber.Router)
	Cast(ctx *fiber.Ctx) error
	Tallies(ctx *fiber.Ctx) error
}

type voteController struct {
	service service.IVoteService
}

func NewVoteController(service service.IVoteService) IVoteController {
	return &voteController{service: service}
}

func (c *voteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/vote/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post(":proposalId", c.Cast)
	h.Get("tallies/:sessionId", c.Tallies)
}

func (c *voteController) Cast(ctx *fiber.Ctx) error {
	userId := localUserId(ctx)
	proposalId, err := uuid.Parse(ctx.Params("proposalId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid proposal id"))
	}

	var req dto.CastVoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.Cast(ctx.Context(), userId, proposalId, &req)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Vote recorded", res))
}

func (c *voteController) Tallies(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.Tallies(ctx.Context(), sessionId)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Vote tallies", res))
}
