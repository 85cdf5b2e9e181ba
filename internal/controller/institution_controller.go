package controller

import (
	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IInstitutionController interface {
	RegisterRoutes(r fiber.Router)

	// Queue
	ListRequests(ctx *fiber.Ctx) error
	ShowRequest(ctx *fiber.Ctx) error
	UpdateRequest(ctx *fiber.Ctx) error
	BulkUpdate(ctx *fiber.Ctx) error

	// Documents
	ListDocuments(ctx *fiber.Ctx) error
	UploadDocument(ctx *fiber.Ctx) error
	DeleteDocument(ctx *fiber.Ctx) error

	// Profile
	GetProfile(ctx *fiber.Ctx) error
	UpdateProfile(ctx *fiber.Ctx) error

	Analytics(ctx *fiber.Ctx) error
	Logs(ctx *fiber.Ctx) error
	LogDetail(ctx *fiber.Ctx) error
}

type institutionController struct {
	service   service.IInstitutionService
	jwtSecret string
}

func NewInstitutionController(service service.IInstitutionService, jwtSecret string) IInstitutionController {
	return &institutionController{service: service, jwtSecret: jwtSecret}
}

func (c *institutionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/institution")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret), serverutils.RequireRole(serverutils.RoleInstitution))

	h.Get("/requests", c.ListRequests)
	h.Patch("/requests/bulk", c.BulkUpdate)
	h.Get("/requests/:id", c.ShowRequest)
	h.Patch("/requests/:id", c.UpdateRequest)

	h.Get("/documents", c.ListDocuments)
	h.Post("/documents", c.UploadDocument)
	h.Delete("/documents/:id", c.DeleteDocument)

	h.Get("/profile", c.GetProfile)
	h.Put("/profile", c.UpdateProfile)

	h.Get("/analytics", c.Analytics)
	h.Get("/logs", c.Logs)
	h.Get("/logs/:id", c.LogDetail)
}

// identity returns the reviewer and their institution.
func identity(ctx *fiber.Ctx) (reviewer, institution uuid.UUID, err error) {
	reviewer, err = serverutils.UserID(ctx)
	if err != nil {
		return
	}
	institution, err = serverutils.InstitutionID(ctx)
	if err != nil {
		err = service.ErrInstitutionRequired
	}
	return
}

func (c *institutionController) ListRequests(ctx *fiber.Ctx) error {
	_, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.ListRequestsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	items, total, err := c.service.ListRequests(ctx.UserContext(), instId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	return ctx.JSON(serverutils.SuccessResponse("Verification requests", serverutils.PagedData[*dto.VerificationRequestResponse]{
		Items:  items,
		Total:  int(total),
		Limit:  limit,
		Offset: req.Offset,
	}))
}

func (c *institutionController) ShowRequest(ctx *fiber.Ctx) error {
	_, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.GetRequest(ctx.UserContext(), instId, id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Verification request", res))
}

func (c *institutionController) UpdateRequest(ctx *fiber.Ctx) error {
	reviewerId, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateRequestStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateRequest(ctx.UserContext(), reviewerId, instId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Request updated", res))
}

func (c *institutionController) BulkUpdate(ctx *fiber.Ctx) error {
	reviewerId, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.BulkUpdateRequestStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.BulkUpdate(ctx.UserContext(), reviewerId, instId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Requests updated", res))
}

func (c *institutionController) ListDocuments(ctx *fiber.Ctx) error {
	_, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.service.ListDocuments(ctx.UserContext(), instId)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Documents", res))
}

func (c *institutionController) UploadDocument(ctx *fiber.Ctx) error {
	_, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.UploadInstitutionDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "File is required")
	}
	file, err := readFile(fh)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unreadable file "+fh.Filename)
	}

	res, err := c.service.UploadDocument(ctx.UserContext(), instId, &req, file)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Document uploaded", res))
}

func (c *institutionController) DeleteDocument(ctx *fiber.Ctx) error {
	_, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.DeleteDocument(ctx.UserContext(), instId, id); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Document deleted", nil))
}

func (c *institutionController) GetProfile(ctx *fiber.Ctx) error {
	_, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.service.GetProfile(ctx.UserContext(), instId)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Institution profile", res))
}

func (c *institutionController) UpdateProfile(ctx *fiber.Ctx) error {
	_, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.UpdateInstitutionProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateProfile(ctx.UserContext(), instId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Institution profile updated", res))
}

func (c *institutionController) Analytics(ctx *fiber.Ctx) error {
	_, instId, err := identity(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.service.Analytics(ctx.UserContext(), instId, ctx.Query("range", "30d"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Analytics", res))
}

func (c *institutionController) Logs(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Logs(ctx.UserContext(), &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", res))
}

func (c *institutionController) LogDetail(ctx *fiber.Ctx) error {
	res, err := c.service.Log(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Log entry", res))
}
