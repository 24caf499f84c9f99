package controller

import (
	"agora-be/internal/dto"
	"agora-be/internal/pkg/serverutils"
	"agora-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	ForceTransition(ctx *fiber.Ctx) error
	ForceTermination(ctx *fiber.Ctx) error
	AdjustTopCount(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	Archive(ctx *fiber.Ctx) error
}

type adminController struct {
	service service.ISessionService
}

func NewAdminController(service service.ISessionService) IAdminController {
	return &adminController{service: service}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware, serverutils.AdminMiddleware)
	h.Post("session/:id/force-transition", c.ForceTransition)
	h.Post("session/:id/force-termination", c.ForceTermination)
	h.Put("session/:id/top-count", c.AdjustTopCount)
	h.Post("session/:id/close", c.Close)
	h.Post("session/:id/archive", c.Archive)
}

func (c *adminController) ForceTransition(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.ForceTransition(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Transition scheduled", res))
}

func (c *adminController) ForceTermination(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.ForceTermination(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Termination scheduled", res))
}

func (c *adminController) AdjustTopCount(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}

	var req dto.AdjustTopCountRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.AdjustTopCount(ctx.Context(), id, &req)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Survivor count adjusted", res))
}

func (c *adminController) Close(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	res, err := c.service.CloseNow(ctx.Context(), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session closed", res))
}

func (c *adminController) Archive(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}
	if err := c.service.Archive(ctx.Context(), id); err != nil {
		return respondServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Session archived", nil))
}
