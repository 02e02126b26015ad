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

// StudentAssignmentHandler wires the student-facing assignment and submission
// routes.
type StudentAssignmentHandler struct {
	assignments service.StudentAssignmentService
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewStudentAssignmentHandler constructs the handler.
func NewStudentAssignmentHandler(assignments service.StudentAssignmentService, submissions service.SubmissionService, logger zerolog.Logger) *StudentAssignmentHandler {
	return &StudentAssignmentHandler{
		assignments: assignments,
		submissions: submissions,
		logger:      logger.With().Str("component", "student_assignment_handler").Logger(),
	}
}

// Register attaches student endpoints to the router group.
func (h *StudentAssignmentHandler) Register(router fiber.Router) {
	router.Get("/assignments", h.list)
	router.Get("/assignments/:id", h.get)
	router.Post("/assignments/:id/submissions", h.submit)
	router.Get("/submissions", h.listMine)
	// The static stats route must register before the parameterised one.
	router.Get("/submissions/stats", h.stats)
	router.Get("/submissions/:id", h.getMine)
	router.Patch("/submissions/:id", h.update)
}

func (h *StudentAssignmentHandler) list(c *fiber.Ctx) error {
	page, pageSize := parsePagination(c)

	listing, err := h.assignments.List(c.Context(), userIDFromContext(c), filtersFromQuery(c), page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", listing)
}

func (h *StudentAssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.assignments.Get(c.Context(), userIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *StudentAssignmentHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Submit(c.Context(), userIDFromContext(c), assignmentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *StudentAssignmentHandler) update(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Update(c.Context(), userIDFromContext(c), submissionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission updated", submission)
}

func (h *StudentAssignmentHandler) getMine(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.GetMine(c.Context(), userIDFromContext(c), submissionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *StudentAssignmentHandler) listMine(c *fiber.Ctx) error {
	page, pageSize := parsePagination(c)

	listing, err := h.submissions.ListMine(c.Context(), userIDFromContext(c), c.Query("status"), queryUint(c, "subject"), page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", listing)
}

func (h *StudentAssignmentHandler) stats(c *fiber.Ctx) error {
	stats, err := h.submissions.Stats(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission stats retrieved", stats)
}

func (h *StudentAssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAssignmentNotOpen):
		return utils.SendError(c, fiber.StatusConflict, "assignment is not open for submissions")
	case errors.Is(err, service.ErrSubmissionExists):
		return utils.SendError(c, fiber.StatusConflict, "submission already exists for this assignment")
	case errors.Is(err, service.ErrSubmissionLocked):
		return utils.SendError(c, fiber.StatusConflict, "submission has been graded and can no longer be edited")
	case errors.Is(err, service.ErrSubmissionWindowClosed):
		return utils.SendError(c, fiber.StatusConflict, "submission window has closed")
	case errors.Is(err, service.ErrNotSubmissionOwner):
		return utils.SendError(c, fiber.StatusForbidden, "submission belongs to another student")
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
