package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ssms-dev/ssms-api/internal/service"
	"github.com/ssms-dev/ssms-api/internal/utils"
)

// UploadHandler handles file uploads referenced by assignments and
// submissions.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler constructs an upload handler.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register wires upload routes.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
	router.Post("/batch", h.uploadBatch)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Upload(c.Context(), file, uploaderFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "upload successful", result)
}

func (h *UploadHandler) uploadBatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form is required")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one file is required")
	}

	results, err := h.service.UploadBatch(c.Context(), files, uploaderFromContext(c))
	if err != nil {
		var batchErr *service.BatchUploadError
		if errors.As(err, &batchErr) {
			// Nothing from the batch is kept; tell the caller which file
			// broke it.
			status := fiber.StatusBadRequest
			if errors.Is(err, service.ErrUploadTooLarge) {
				status = fiber.StatusRequestEntityTooLarge
			}
			return utils.SendError(c, status, batchErr.Error())
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "upload successful", results)
}

func (h *UploadHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed), errors.Is(err, service.ErrUploadScanFailed):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("upload failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "upload failed")
	}
}

func uploaderFromContext(c *fiber.Ctx) *uint {
	if id, ok := c.Locals("user_id").(uint); ok && id > 0 {
		return &id
	}
	return nil
}
