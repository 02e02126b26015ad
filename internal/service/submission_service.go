package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/repository"
	"github.com/ssms-dev/ssms-api/internal/workflow"
)

// SubmissionService covers the student side of the submission lifecycle.
type SubmissionService interface {
	Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Update(ctx context.Context, studentID, submissionID uint, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error)
	GetMine(ctx context.Context, studentID, submissionID uint) (dto.SubmissionResponse, error)
	ListMine(ctx context.Context, studentID uint, status string, subjectID *uint, page, pageSize int) (dto.SubmissionListResponse, error)
	Stats(ctx context.Context, studentID uint) (dto.SubmissionStatsResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	validator   *validator.Validate
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService builds a new submission service.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		users:       users,
		validator:   validate,
		policy:      bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if student.ClassID == nil || assignment.ClassID != *student.ClassID {
		return dto.SubmissionResponse{}, ErrAssignmentNotFound
	}
	if assignment.Status != models.AssignmentStatusPublished {
		return dto.SubmissionResponse{}, ErrAssignmentNotOpen
	}

	if _, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID); err == nil {
		return dto.SubmissionResponse{}, ErrSubmissionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	// A first submission after the deadline is accepted; it is just marked
	// late. Only edits are cut off by the due date.
	status, isLate := workflow.SubmissionStatusAt(assignment, now)

	submission := models.Submission{
		AssignmentID:    assignmentID,
		StudentID:       studentID,
		Files:           newSubmissionFileModels(payload.Files),
		SubmissionNotes: s.policy.Sanitize(payload.SubmissionNotes),
		SubmittedAt:     now,
		IsLate:          isLate,
		Status:          status,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Uint("student_id", studentID).
		Bool("late", isLate).
		Msg("submission created")

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) Update(ctx context.Context, studentID, submissionID uint, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.StudentID != studentID {
		return dto.SubmissionResponse{}, ErrNotSubmissionOwner
	}

	now := s.now()
	if !workflow.CanEditSubmission(submission.Assignment, &submission, now) {
		if submission.IsGraded() {
			return dto.SubmissionResponse{}, ErrSubmissionLocked
		}
		return dto.SubmissionResponse{}, ErrSubmissionWindowClosed
	}

	if payload.SubmissionNotes != nil {
		submission.SubmissionNotes = s.policy.Sanitize(*payload.SubmissionNotes)
	}
	// Resubmitting moves the timestamp but never the late flag, which is
	// fixed by the first submission.
	submission.SubmittedAt = now

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if len(payload.Files) > 0 {
		if err := s.submissions.ReplaceFiles(ctx, submission.ID, newSubmissionFileModels(payload.Files)); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	updated, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("submission updated")

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) GetMine(ctx context.Context, studentID, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.StudentID != studentID {
		return dto.SubmissionResponse{}, ErrNotSubmissionOwner
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListMine(ctx context.Context, studentID uint, status string, subjectID *uint, page, pageSize int) (dto.SubmissionListResponse, error) {
	filter := repository.SubmissionFilter{
		StudentID: &studentID,
		SubjectID: subjectID,
		Page:      page,
		PageSize:  pageSize,
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

func (s *submissionService) Stats(ctx context.Context, studentID uint) (dto.SubmissionStatsResponse, error) {
	submissions, _, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.SubmissionStatsResponse{}, err
	}

	var stats dto.SubmissionStatsResponse
	var percentageSum float64
	for _, submission := range submissions {
		stats.Total++
		if submission.IsLate {
			stats.Late++
		} else {
			stats.OnTime++
		}
		if submission.IsGraded() && submission.MarksObtained != nil {
			stats.Graded++
			percentageSum += workflow.Percentage(*submission.MarksObtained, submission.Assignment.TotalMarks)
		} else {
			stats.Pending++
		}
	}
	if stats.Graded > 0 {
		stats.AveragePercentage = percentageSum / float64(stats.Graded)
	}

	return stats, nil
}

func newSubmissionFileModels(descriptors []dto.FileDescriptor) []models.SubmissionFile {
	files := make([]models.SubmissionFile, 0, len(descriptors))
	for i, descriptor := range descriptors {
		files = append(files, models.SubmissionFile{
			Name:     descriptor.Name,
			URL:      descriptor.URL,
			FileType: descriptor.Type,
			Position: i,
		})
	}

	return files
}
