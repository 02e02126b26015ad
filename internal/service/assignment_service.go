package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/repository"
	"github.com/ssms-dev/ssms-api/internal/workflow"
)

// AssignmentService exposes teacher and admin assignment use cases.
type AssignmentService interface {
	List(ctx context.Context, actor Actor, filters workflow.Filters, page, pageSize int) (dto.AssignmentListResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Publish(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	cache       *redis.Client
	cacheTTL    time.Duration
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, validate *validator.Validate, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) AssignmentService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &assignmentService{
		assignments: assignments,
		submissions: submissions,
		validator:   validate,
		cache:       cache,
		cacheTTL:    cacheTTL,
		policy:      descriptionPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func descriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "a", "ul", "ol", "li", "br")
	policy.AllowAttrs("href", "title", "target").OnElements("a")
	return policy
}

// cachedAssignmentPage stores raw models rather than rendered responses so
// the effective status is always re-derived from the time of the read.
type cachedAssignmentPage struct {
	Items []models.Assignment `json:"items"`
	Total int64               `json:"total"`
}

func (s *assignmentService) List(ctx context.Context, actor Actor, filters workflow.Filters, page, pageSize int) (dto.AssignmentListResponse, error) {
	if !actor.IsAdmin() {
		// Teachers only ever see their own assignments.
		filters.Teacher = strconv.FormatUint(uint64(actor.ID), 10)
	}

	now := s.now()
	repoFilter := s.repoFilter(filters, now)
	repoFilter.Page = page
	repoFilter.PageSize = pageSize

	cacheKey := fmt.Sprintf("assignments:list:v1:%s:%d:%s:page=%d&limit=%d", actor.Role, actor.ID, filters.Encode(), page, pageSize)

	var cached cachedAssignmentPage
	hit := false
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
				hit = true
				s.logger.Debug().Str("key", cacheKey).Msg("assignment list cache hit")
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read assignment list cache")
		}
	}

	if !hit {
		items, total, err := s.assignments.List(ctx, repoFilter)
		if err != nil {
			return dto.AssignmentListResponse{}, err
		}
		cached = cachedAssignmentPage{Items: items, Total: total}

		if s.cache != nil {
			if payload, err := json.Marshal(cached); err == nil {
				if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
					s.logger.Warn().Err(err).Msg("failed to store assignment list cache")
				}
			}
		}
	}

	return dto.AssignmentListResponse{
		Items:      dto.NewAssignmentResponseSlice(cached.Items, now),
		Pagination: paginate(page, pageSize, cached.Total),
	}, nil
}

func (s *assignmentService) Get(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	response := dto.NewAssignmentResponse(assignment, s.now())

	aggregates, err := s.submissions.AggregateByAssignment(ctx, []uint{assignment.ID})
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if agg, ok := aggregates[assignment.ID]; ok {
		response.SubmissionStats = &dto.SubmissionStats{
			Total:   agg.Total,
			Graded:  agg.Graded,
			Pending: agg.Total - agg.Graded,
			Late:    agg.Late,
		}
	} else {
		response.SubmissionStats = &dto.SubmissionStats{}
	}

	return response, nil
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	now := s.now()
	dueDate := parseDueDate(payload.DueDate)

	teacherID := actor.ID
	if actor.IsAdmin() {
		teacherID = payload.TeacherID
	}

	input := workflow.AssignmentInput{
		Title:       payload.Title,
		Description: payload.Description,
		Subject:     refString(payload.SubjectID),
		Class:       refString(payload.ClassID),
		Teacher:     refString(teacherID),
		TotalMarks:  payload.TotalMarks,
		DueDate:     dueDate,
	}
	if errs := workflow.ValidateAssignment(input, actor.IsAdmin(), now); errs.HasErrors() {
		return dto.AssignmentResponse{}, &ValidationError{Fields: errs}
	}

	status := payload.Status
	if status == "" {
		status = models.AssignmentStatusDraft
	}

	assignment := models.Assignment{
		Title:       payload.Title,
		Description: s.policy.Sanitize(payload.Description),
		SubjectID:   payload.SubjectID,
		ClassID:     payload.ClassID,
		TeacherID:   teacherID,
		TotalMarks:  *payload.TotalMarks,
		DueDate:     *dueDate,
		Status:      status,
		Attachments: newAttachmentModels(payload.Attachments),
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	created, err := s.assignments.GetByID(ctx, assignment.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", created.ID).Str("status", created.Status).Msg("assignment created")

	return dto.NewAssignmentResponse(created, now), nil
}

func (s *assignmentService) Update(ctx context.Context, actor Actor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	submissionCount, err := s.submissions.CountForAssignment(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.TotalMarks != nil && *payload.TotalMarks != assignment.TotalMarks && !workflow.CanChangeTotalMarks(submissionCount) {
		return dto.AssignmentResponse{}, ErrTotalMarksLocked
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = s.policy.Sanitize(*payload.Description)
	}
	if payload.SubjectID != nil {
		assignment.SubjectID = *payload.SubjectID
	}
	if payload.ClassID != nil {
		assignment.ClassID = *payload.ClassID
	}
	if payload.TotalMarks != nil {
		assignment.TotalMarks = *payload.TotalMarks
	}

	now := s.now()
	dueDate := assignment.DueDate
	if payload.DueDate != nil {
		parsed := parseDueDate(*payload.DueDate)
		if parsed == nil || !parsed.After(now) {
			return dto.AssignmentResponse{}, &ValidationError{Fields: workflow.FieldErrors{
				"dueDate": "Due date must be in the future",
			}}
		}
		dueDate = *parsed
	}
	assignment.DueDate = dueDate

	// Validate the resulting snapshot, not just the changed fields.
	marks := assignment.TotalMarks
	input := workflow.AssignmentInput{
		Title:       assignment.Title,
		Description: assignment.Description,
		Subject:     refString(assignment.SubjectID),
		Class:       refString(assignment.ClassID),
		Teacher:     refString(assignment.TeacherID),
		TotalMarks:  &marks,
		DueDate:     &assignment.DueDate,
	}
	errs := workflow.ValidateAssignment(input, actor.IsAdmin(), now)
	if payload.DueDate == nil {
		// Editing metadata of an already-expired assignment stays legal as
		// long as the due date itself is untouched.
		delete(errs, "dueDate")
	}
	if errs.HasErrors() {
		return dto.AssignmentResponse{}, &ValidationError{Fields: errs}
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Attachments != nil {
		if err := s.assignments.ReplaceAttachments(ctx, assignment.ID, newAttachmentModels(*payload.Attachments)); err != nil {
			return dto.AssignmentResponse{}, err
		}
	}

	updated, err := s.assignments.GetByID(ctx, assignment.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(updated, now), nil
}

func (s *assignmentService) Publish(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !workflow.CanPublish(assignment) {
		return dto.AssignmentResponse{}, ErrAlreadyPublished
	}

	assignment.Status = models.AssignmentStatusPublished
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment published")

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return err
	}

	submissionCount, err := s.submissions.CountForAssignment(ctx, id)
	if err != nil {
		return err
	}
	if submissionCount > 0 {
		return ErrAssignmentHasSubmissions
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) getOwned(ctx context.Context, actor Actor, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	if !actor.IsAdmin() && assignment.TeacherID != actor.ID {
		return models.Assignment{}, ErrNotAssignmentOwner
	}

	return assignment, nil
}

func (s *assignmentService) repoFilter(filters workflow.Filters, now time.Time) repository.AssignmentFilter {
	return repository.AssignmentFilter{
		Status:    filters.Status,
		Now:       now,
		ClassID:   parseRef(filters.Class),
		SubjectID: parseRef(filters.Subject),
		TeacherID: parseRef(filters.Teacher),
		Search:    filters.Search,
		DateFrom:  parseFilterDate(filters.DateFrom),
		DateTo:    parseFilterDate(filters.DateTo),
	}
}

func newAttachmentModels(descriptors []dto.FileDescriptor) []models.AssignmentAttachment {
	attachments := make([]models.AssignmentAttachment, 0, len(descriptors))
	for i, descriptor := range descriptors {
		attachments = append(attachments, models.AssignmentAttachment{
			Name:     descriptor.Name,
			URL:      descriptor.URL,
			FileType: descriptor.Type,
			Position: i,
		})
	}

	return attachments
}

func paginate(page, pageSize int, total int64) dto.Pagination {
	if page <= 0 {
		page = 1
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return dto.Pagination{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: totalPages}
}

func refString(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

func parseRef(value string) *uint {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil
	}
	id := uint(parsed)
	return &id
}

func parseDueDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseFilterDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}
