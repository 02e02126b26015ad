package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/service"
	"github.com/ssms-dev/ssms-api/internal/utils"
)

// GradingHandler wires grading and review routes for teachers.
type GradingHandler struct {
	grading   service.GradingService
	analytics service.AnalyticsService
	logger    zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(grading service.GradingService, analytics service.AnalyticsService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:   grading,
		analytics: analytics,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Get("/assignments/:id/submissions", h.listSubmissions)
	router.Get("/assignments/:id/non-submitters", h.nonSubmitters)
	router.Post("/submissions/:id/grade", h.grade)
	router.Get("/analytics", h.analyticsOverview)
}

func (h *GradingHandler) listSubmissions(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, pageSize := parsePagination(c)

	var isLate *bool
	switch queryValue(c, "isLate", "is_late") {
	case "true":
		value := true
		isLate = &value
	case "false":
		value := false
		isLate = &value
	}

	listing, err := h.grading.ListForAssignment(c.Context(), actorFromContext(c), assignmentID, c.Query("status"), isLate, page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", listing)
}

func (h *GradingHandler) nonSubmitters(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	missing, err := h.grading.NonSubmitters(c.Context(), actorFromContext(c), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "non submitters retrieved", missing)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.Grade(c.Context(), actorFromContext(c), submissionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *GradingHandler) analyticsOverview(c *fiber.Ctx) error {
	overview, err := h.analytics.TeacherOverview(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "analytics retrieved", overview)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNotAssignmentOwner):
		return utils.SendError(c, fiber.StatusForbidden, "assignment belongs to another teacher")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		if fieldErrs, ok := service.AsValidationError(err); ok {
			return utils.SendFieldErrors(c, fieldErrs.Fields)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
