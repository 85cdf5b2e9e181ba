package controller

import (
	"errors"
	"io"
	"mime/multipart"

	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/service"
	"academic-auth-be/pkg/capture"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"
	"academic-auth-be/pkg/settings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, serverutils.ErrValidation),
		errors.Is(err, processing.ErrNoFiles),
		errors.Is(err, processing.ErrIncompleteExtraction),
		errors.Is(err, processing.ErrUnsupportedFormat),
		errors.Is(err, processing.ErrFileTooLarge),
		errors.Is(err, service.ErrInvalidSource),
		errors.Is(err, service.ErrUnknownInstitution),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, provider.ErrUnknownRange),
		errors.Is(err, provider.ErrUndecodablePayload),
		errors.Is(err, capture.ErrUnknownView),
		errors.Is(err, settings.ErrInvalidSettings):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, serverutils.ErrNoIdentity):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrInstitutionRequired):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrVerificationNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrInstitutionNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, capture.ErrLeaseNotFound),
		errors.Is(err, logger.ErrLogNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDraftNotReady),
		errors.Is(err, processing.ErrInvalidTransition),
		errors.Is(err, processing.ErrNotActive),
		errors.Is(err, service.ErrDisputeNotAllowed),
		errors.Is(err, capture.ErrStreamBusy):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrAuthNotConfigured):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func fail(ctx *fiber.Ctx, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "Internal server error"
	}
	return ctx.Status(code).JSON(serverutils.ErrorResponse(code, msg))
}

func paramID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// readFile loads one multipart part into memory.
func readFile(fh *multipart.FileHeader) (processing.File, error) {
	f, err := fh.Open()
	if err != nil {
		return processing.File{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return processing.File{}, err
	}
	return processing.File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
