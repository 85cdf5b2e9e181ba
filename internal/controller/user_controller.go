package controller

import (
	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	GetProfile(ctx *fiber.Ctx) error
	UpdateProfile(ctx *fiber.Ctx) error
	ChangePassword(ctx *fiber.Ctx) error
	DeleteAccount(ctx *fiber.Ctx) error
	GetSettings(ctx *fiber.Ctx) error
	UpdateSettings(ctx *fiber.Ctx) error

	// Capture
	AcquireCapture(ctx *fiber.Ctx) error
	RenewCapture(ctx *fiber.Ctx) error
	ReleaseCapture(ctx *fiber.Ctx) error
	CapturePermissionError(ctx *fiber.Ctx) error
}

type userController struct {
	service   service.IUserService
	capture   service.ICaptureService
	jwtSecret string
}

func NewUserController(service service.IUserService, capture service.ICaptureService, jwtSecret string) IUserController {
	return &userController{service: service, capture: capture, jwtSecret: jwtSecret}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/user")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("/profile", c.GetProfile)
	h.Put("/profile", c.UpdateProfile)
	h.Put("/password", c.ChangePassword)
	h.Delete("/account", c.DeleteAccount)
	h.Get("/settings", c.GetSettings)
	h.Put("/settings", c.UpdateSettings)

	// Capture
	h.Post("/capture", c.AcquireCapture)
	h.Post("/capture/:lease/renew", c.RenewCapture)
	h.Delete("/capture/:lease", c.ReleaseCapture)
	h.Post("/capture/permission-error", c.CapturePermissionError)
}

func (c *userController) GetProfile(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.service.GetProfile(ctx.UserContext(), userId)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}

func (c *userController) UpdateProfile(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.UpdateProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateProfile(ctx.UserContext(), userId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile updated", res))
}

func (c *userController) ChangePassword(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.ChangePasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.ChangePassword(ctx.UserContext(), userId, &req); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Password changed", nil))
}

func (c *userController) DeleteAccount(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.DeleteAccountRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.DeleteAccount(ctx.UserContext(), userId, &req); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Account deleted", nil))
}

func (c *userController) GetSettings(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.service.GetSettings(ctx.UserContext(), userId)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Settings", res))
}

func (c *userController) UpdateSettings(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := c.service.UpdateSettings(ctx.UserContext(), userId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	msg := "Settings unchanged"
	if res.Saved {
		msg = "Settings saved"
	}
	return ctx.JSON(serverutils.SuccessResponse(msg, res))
}

func (c *userController) AcquireCapture(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.AcquireCaptureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	lease, err := c.capture.Acquire(ctx.UserContext(), userId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Camera stream acquired", lease))
}

func (c *userController) RenewCapture(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	lease, err := c.capture.Renew(ctx.UserContext(), userId, ctx.Params("lease"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Camera stream renewed", lease))
}

func (c *userController) ReleaseCapture(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	if err := c.capture.Release(ctx.UserContext(), userId, ctx.Params("lease")); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Camera stream released", nil))
}

func (c *userController) CapturePermissionError(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.CapturePermissionErrorRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.capture.PermissionError(ctx.UserContext(), userId, &req)
	return ctx.JSON(serverutils.SuccessResponse("Camera permission error", res))
}
