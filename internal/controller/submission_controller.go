package controller

import (
	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/service"
	"academic-auth-be/pkg/processing"

	"github.com/gofiber/fiber/v2"
)

type ISubmissionController interface {
	RegisterRoutes(r fiber.Router)
	Options(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Draft(ctx *fiber.Ctx) error
	SubmitFiles(ctx *fiber.Ctx) error
	ConfirmExtraction(ctx *fiber.Ctx) error
	DetectQR(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	Abandon(ctx *fiber.Ctx) error
}

type submissionController struct {
	submissionService service.ISubmissionService
	jwtSecret         string
}

func NewSubmissionController(submissionService service.ISubmissionService, jwtSecret string) ISubmissionController {
	return &submissionController{
		submissionService: submissionService,
		jwtSecret:         jwtSecret,
	}
}

func (c *submissionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/submission/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("options", c.Options)
	h.Post("qr", c.DetectQR)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Get(":id/draft", c.Draft)
	h.Post(":id/files", c.SubmitFiles)
	h.Put(":id/extraction", c.ConfirmExtraction)
	h.Post(":id/retry", c.Retry)
	h.Delete(":id", c.Abandon)
}

func (c *submissionController) Options(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Submission options", c.submissionService.Options(ctx.UserContext())))
}

func (c *submissionController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.submissionService.Create(ctx.UserContext(), userId)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Submission created", res))
}

func (c *submissionController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.submissionService.Get(ctx.UserContext(), userId, id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Submission", res))
}

func (c *submissionController) Draft(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.submissionService.GetDraft(ctx.UserContext(), userId, id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Extraction draft", res))
}

// SubmitFiles accepts a multipart form with one or more "files" parts and
// an optional "source" field (upload or camera).
func (c *submissionController) SubmitFiles(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Multipart form is required")
	}
	headers := form.File["files"]
	files := make([]processing.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unreadable file "+fh.Filename)
		}
		files = append(files, f)
	}

	source := processing.Source(ctx.FormValue("source"))
	res, err := c.submissionService.SubmitFiles(ctx.UserContext(), userId, id, source, files)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Files accepted", res))
}

func (c *submissionController) ConfirmExtraction(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.ConfirmExtractionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.submissionService.ConfirmExtraction(ctx.UserContext(), userId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Extraction confirmed", res))
}

func (c *submissionController) DetectQR(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	var req dto.DetectQRRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.submissionService.DetectQR(ctx.UserContext(), userId, &req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("QR code detected", res))
}

func (c *submissionController) Retry(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.submissionService.Retry(ctx.UserContext(), userId, id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Submission reset", res))
}

func (c *submissionController) Abandon(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.submissionService.Abandon(ctx.UserContext(), userId, id); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Submission abandoned", nil))
}
