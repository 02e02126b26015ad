package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/repository"
	"github.com/ssms-dev/ssms-api/internal/workflow"
)

// StudentAssignmentService exposes the read side students see: published
// assignments for their class, each paired with their own submission state.
type StudentAssignmentService interface {
	List(ctx context.Context, studentID uint, filters workflow.Filters, page, pageSize int) (dto.AssignmentListResponse, error)
	Get(ctx context.Context, studentID, assignmentID uint) (dto.AssignmentResponse, error)
}

type studentAssignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentAssignmentService builds a new student-facing assignment service.
func NewStudentAssignmentService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, users repository.UserRepository, logger zerolog.Logger) StudentAssignmentService {
	return &studentAssignmentService{
		assignments: assignments,
		submissions: submissions,
		users:       users,
		logger:      logger.With().Str("component", "student_assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentAssignmentService) List(ctx context.Context, studentID uint, filters workflow.Filters, page, pageSize int) (dto.AssignmentListResponse, error) {
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}
	if student.ClassID == nil {
		return dto.AssignmentListResponse{
			Items:      []dto.AssignmentResponse{},
			Pagination: paginate(page, pageSize, 0),
		}, nil
	}

	now := s.now()
	repoFilter := repository.AssignmentFilter{
		Status:    filters.Status,
		Now:       now,
		ClassID:   student.ClassID,
		SubjectID: parseRef(filters.Subject),
		Search:    filters.Search,
		DateFrom:  parseFilterDate(filters.DateFrom),
		DateTo:    parseFilterDate(filters.DateTo),
		Page:      page,
		PageSize:  pageSize,
	}
	// Drafts never reach students; an empty status filter means "anything
	// visible", which is published plus expired.
	if repoFilter.Status == "" || repoFilter.Status == models.AssignmentStatusDraft {
		repoFilter.Status = models.AssignmentStatusPublished
		repoFilter.IncludeExpired = true
	}

	assignments, total, err := s.assignments.List(ctx, repoFilter)
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	items := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		item, err := s.decorate(ctx, assignment, studentID, now)
		if err != nil {
			return dto.AssignmentListResponse{}, err
		}
		items = append(items, item)
	}

	return dto.AssignmentListResponse{
		Items:      items,
		Pagination: paginate(page, pageSize, total),
	}, nil
}

func (s *studentAssignmentService) Get(ctx context.Context, studentID, assignmentID uint) (dto.AssignmentResponse, error) {
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	// Drafts and other classes' assignments are invisible, not forbidden.
	if assignment.Status != models.AssignmentStatusPublished {
		return dto.AssignmentResponse{}, ErrAssignmentNotFound
	}
	if student.ClassID == nil || assignment.ClassID != *student.ClassID {
		return dto.AssignmentResponse{}, ErrAssignmentNotFound
	}

	return s.decorate(ctx, assignment, studentID, s.now())
}

func (s *studentAssignmentService) decorate(ctx context.Context, assignment models.Assignment, studentID uint, now time.Time) (dto.AssignmentResponse, error) {
	response := dto.NewAssignmentResponse(assignment, now)

	var existing *models.Submission
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, studentID)
	switch {
	case err == nil:
		existing = &submission
		mine := dto.NewSubmissionResponse(submission)
		response.MySubmission = &mine
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no submission yet
	default:
		return dto.AssignmentResponse{}, err
	}

	canEdit := workflow.CanEditSubmission(assignment, existing, now)
	response.CanEditSubmission = &canEdit

	return response, nil
}
