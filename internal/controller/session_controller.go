package controller

import (
	"agora-be/internal/dto"
	"agora-be/internal/pkg/serverutils"
	"agora-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Current(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Progress(ctx *fiber.Ctx) error
	Poll(ctx *fiber.Ctx) error
	Results(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", serverutils.AdminMiddleware, c.Create)
	h.Get("current", c.Current)
	h.Get(":id", c.Show)
	h.Get(":id/progress", c.Progress)
	h.Post(":id/poll", c.Poll)
	h.Get(":id/results", c.Results)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId := localUserId(ctx)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.Create(ctx.Context(), userId, &req)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *sessionController) Current(ctx *fiber.Ctx) error {
	res, err := c.service.Current(ctx.Context())
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Current session", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.Show(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session", res))
}

func (c *sessionController) Progress(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.Progress(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session progress", res))
}

func (c *sessionController) Poll(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.Poll(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Poll result", res))
}

func (c *sessionController) Results(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.Results(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session results", res))
}

// localUserId reads the id JwtMiddleware stored in locals.
func localUserId(ctx *fiber.Ctx) uuid.UUID {
	idStr, _ := ctx.Locals("user_id").(string)
	id, _ := uuid.Parse(idStr)
	return id
}
