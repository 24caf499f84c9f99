package controller

import (
	"agora-be/internal/dto"
	"agora-be/internal/pkg/serverutils"
	"agora-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IProposalController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Rate(ctx *fiber.Ctx) error
	Comment(ctx *fiber.Ctx) error
	ListComments(ctx *fiber.Ctx) error
}

type proposalController struct {
	service service.IProposalService
}

func NewProposalController(service service.IProposalService) IProposalController {
	return &proposalController{service: service}
}

func (c *proposalController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/proposal/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("session/:sessionId", c.List)
	h.Get(":id", c.Show)
	h.Post(":id/rate", c.Rate)
	h.Post(":id/comment", c.Comment)
	h.Get(":id/comments", c.ListComments)
}

func (c *proposalController) Create(ctx *fiber.Ctx) error {
	userId := localUserId(ctx)

	var req dto.CreateProposalRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.Create(ctx.Context(), userId, req.SessionId, &req)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Proposal submitted", res))
}

func (c *proposalController) List(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.List(ctx.Context(), sessionId)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Proposals", res))
}

func (c *proposalController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid proposal id"))
	}
	res, err := c.service.Show(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Proposal", res))
}

func (c *proposalController) Rate(ctx *fiber.Ctx) error {
	userId := localUserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid proposal id"))
	}

	var req dto.RateProposalRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.Rate(ctx.Context(), userId, id, &req)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Rating recorded", res))
}

func (c *proposalController) Comment(ctx *fiber.Ctx) error {
	userId := localUserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid proposal id"))
	}

	var req dto.CreateCommentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.Comment(ctx.Context(), userId, id, &req)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Comment posted", res))
}

func (c *proposalController) ListComments(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid proposal id"))
	}
	res, err := c.service.ListComments(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Comments", res))
}
