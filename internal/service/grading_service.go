package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/repository"
	"github.com/ssms-dev/ssms-api/internal/workflow"
)

// GradingService covers the teacher side of reviewing and grading submissions.
type GradingService interface {
	ListForAssignment(ctx context.Context, actor Actor, assignmentID uint, status string, isLate *bool, page, pageSize int) (dto.SubmissionListResponse, error)
	NonSubmitters(ctx context.Context, actor Actor, assignmentID uint) ([]dto.UserLite, error)
	Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	validator   *validator.Validate
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService builds a new grading service.
func NewGradingService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		assignments: assignments,
		users:       users,
		validator:   validate,
		policy:      bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) ListForAssignment(ctx context.Context, actor Actor, assignmentID uint, status string, isLate *bool, page, pageSize int) (dto.SubmissionListResponse, error) {
	if _, err := s.ownedAssignment(ctx, actor, assignmentID); err != nil {
		return dto.SubmissionListResponse{}, err
	}

	filter := repository.SubmissionFilter{
		AssignmentID: &assignmentID,
		IsLate:       isLate,
		Page:         page,
		PageSize:     pageSize,
	}
	if status != "" {
		filter.Status = &status
	}

	submissions, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	return dto.SubmissionListResponse{
		Items:      dto.NewSubmissionResponseSlice(submissions),
		Pagination: paginate(page, pageSize, total),
	}, nil
}

// NonSubmitters returns the students in the assignment's class who have not
// handed anything in yet.
func (s *gradingService) NonSubmitters(ctx context.Context, actor Actor, assignmentID uint) ([]dto.UserLite, error) {
	assignment, err := s.ownedAssignment(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}

	students, err := s.users.ListStudentsByClass(ctx, assignment.ClassID)
	if err != nil {
		return nil, err
	}

	submissions, _, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
	if err != nil {
		return nil, err
	}

	submitted := make(map[uint]struct{}, len(submissions))
	for _, submission := range submissions {
		submitted[submission.StudentID] = struct{}{}
	}

	missing := make([]dto.UserLite, 0)
	for _, student := range students {
		if _, ok := submitted[student.ID]; ok {
			continue
		}
		missing = append(missing, dto.UserLite{ID: student.ID, Name: student.Name, Email: student.Email})
	}

	return missing, nil
}

func (s *gradingService) Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/ssms-dev/ssms-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.update")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if !actor.IsAdmin() && submission.Assignment.TeacherID != actor.ID {
		return dto.SubmissionResponse{}, ErrNotAssignmentOwner
	}

	if fieldErrs := workflow.ValidateGrade(payload.MarksObtained, submission.Assignment.TotalMarks); fieldErrs.HasErrors() {
		err := &ValidationError{Fields: fieldErrs}
		span.RecordError(err)
		span.SetStatus(codes.Error, "marks_out_of_range")
		return dto.SubmissionResponse{}, err
	}

	// Re-grading overwrites the previous marks; the submission simply stays
	// in the graded state.
	marks := *payload.MarksObtained
	submission.MarksObtained = &marks
	submission.Feedback = s.policy.Sanitize(strings.TrimSpace(payload.Feedback))
	submission.Status = models.SubmissionStatusGraded
	gradedAt := s.now()
	submission.GradedAt = &gradedAt
	gradedBy := actor.ID
	submission.GradedBy = &gradedBy

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("graded_by", actor.ID).
		Int("marks", marks).
		Msg("submission graded")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) ownedAssignment(ctx context.Context, actor Actor, assignmentID uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
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
