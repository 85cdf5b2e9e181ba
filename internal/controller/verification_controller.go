package controller

import (
	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 20

type IVerificationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Share(ctx *fiber.Ctx) error
	ShareByEmail(ctx *fiber.Ctx) error
	Dispute(ctx *fiber.Ctx) error
	Lookup(ctx *fiber.Ctx) error
}

type verificationController struct {
	verificationService service.IVerificationService
	jwtSecret           string
}

func NewVerificationController(verificationService service.IVerificationService, jwtSecret string) IVerificationController {
	return &verificationController{
		verificationService: verificationService,
		jwtSecret:           jwtSecret,
	}
}

func (c *verificationController) RegisterRoutes(r fiber.Router) {
	// shared result links resolve without an account
	r.Get("/public/verification/:code", serverutils.OptionalJwtMiddleware(c.jwtSecret), c.Lookup)

	h := r.Group("/verification/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("", c.List)
	h.Get(":code", c.Show)
	h.Post(":code/share", c.Share)
	h.Post(":code/share/email", c.ShareByEmail)
	h.Post(":code/dispute", c.Dispute)
}

func (c *verificationController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.ListVerificationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	items, total, err := c.verificationService.List(ctx.UserContext(), userId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	return ctx.JSON(serverutils.SuccessResponse("Verifications", serverutils.PagedData[*dto.VerificationResponse]{
		Items:  items,
		Total:  int(total),
		Limit:  limit,
		Offset: req.Offset,
	}))
}

func (c *verificationController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.verificationService.Detail(ctx.UserContext(), userId, ctx.Params("code"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Verification result", res))
}

func (c *verificationController) Share(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.verificationService.ShareLink(ctx.UserContext(), userId, ctx.Params("code"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Share link", res))
}

func (c *verificationController) ShareByEmail(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.ShareByEmailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.verificationService.ShareByEmail(ctx.UserContext(), userId, ctx.Params("code"), &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Results shared", res))
}

func (c *verificationController) Dispute(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.DisputeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.verificationService.Dispute(ctx.UserContext(), userId, ctx.Params("code"), &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Dispute submitted", res))
}

func (c *verificationController) Lookup(ctx *fiber.Ctx) error {
	viewer := service.Viewer{Role: serverutils.Role(ctx)}
	res, err := c.verificationService.Lookup(ctx.UserContext(), viewer, ctx.Params("code"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Verification status", res))
}
