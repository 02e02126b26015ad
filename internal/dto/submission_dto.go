package dto

import (
	"time"

	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/workflow"
)

// SubmissionCreateRequest is a student's first submission for an assignment.
// At least one file is required on creation.
type SubmissionCreateRequest struct {
	Files           []FileDescriptor `json:"files" validate:"required,min=1,dive"`
	SubmissionNotes string           `json:"submission_notes"`
}

// SubmissionUpdateRequest carries edits to an existing submission. Files, when
// present, replace the stored list; notes are updated only when non-nil.
type SubmissionUpdateRequest struct {
	Files           []FileDescriptor `json:"files" validate:"omitempty,dive"`
	SubmissionNotes *string          `json:"submission_notes"`
}

// GradeSubmissionRequest is the grader's input. MarksObtained is a pointer so
// an absent value can be told apart from a legitimate zero.
type GradeSubmissionRequest struct {
	MarksObtained *int   `json:"marks_obtained"`
	Feedback      string `json:"feedback"`
}

// AssignmentLite summarizes the parent assignment in submission responses.
type AssignmentLite struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	TotalMarks int       `json:"total_marks"`
	DueDate    time.Time `json:"due_date"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
// Percentage is derived from marks and the assignment maximum; it is present
// only for graded submissions.
type SubmissionResponse struct {
	ID              uint             `json:"id"`
	AssignmentID    uint             `json:"assignment_id"`
	StudentID       uint             `json:"student_id"`
	Files           []FileDescriptor `json:"files"`
	SubmissionNotes string           `json:"submission_notes"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	IsLate          bool             `json:"is_late"`
	Status          string           `json:"status"`
	MarksObtained   *int             `json:"marks_obtained"`
	Feedback        string           `json:"feedback"`
	Percentage      *float64         `json:"percentage,omitempty"`
	GradedBy        *uint            `json:"graded_by"`
	GradedAt        *time.Time       `json:"graded_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Assignment      AssignmentLite   `json:"assignment"`
	Student         UserLite         `json:"student"`
}

// SubmissionListResponse is a paginated submission listing.
type SubmissionListResponse struct {
	Items      []SubmissionResponse `json:"items"`
	Pagination Pagination           `json:"pagination"`
}

// SubmissionStatsResponse aggregates a student's submission history.
type SubmissionStatsResponse struct {
	Total             int64   `json:"total"`
	OnTime            int64   `json:"on_time"`
	Late              int64   `json:"late"`
	Graded            int64   `json:"graded"`
	Pending           int64   `json:"pending"`
	AveragePercentage float64 `json:"average_percentage"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		StudentID:       model.StudentID,
		Files:           newSubmissionFileDescriptors(model.Files),
		SubmissionNotes: model.SubmissionNotes,
		SubmittedAt:     model.SubmittedAt,
		IsLate:          model.IsLate,
		Status:          model.Status,
		MarksObtained:   model.MarksObtained,
		Feedback:        model.Feedback,
		GradedBy:        model.GradedBy,
		GradedAt:        model.GradedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:         model.Assignment.ID,
			Title:      model.Assignment.Title,
			TotalMarks: model.Assignment.TotalMarks,
			DueDate:    model.Assignment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = UserLite{ID: model.Student.ID, Name: model.Student.Name, Email: model.Student.Email}
	}

	if model.IsGraded() && model.MarksObtained != nil {
		percentage := workflow.Percentage(*model.MarksObtained, model.Assignment.TotalMarks)
		response.Percentage = &percentage
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

func newSubmissionFileDescriptors(files []models.SubmissionFile) []FileDescriptor {
	descriptors := make([]FileDescriptor, 0, len(files))
	for _, file := range files {
		descriptors = append(descriptors, FileDescriptor{
			Name: file.Name,
			URL:  file.URL,
			Type: file.FileType,
		})
	}

	return descriptors
}
