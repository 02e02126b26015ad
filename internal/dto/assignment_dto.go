package dto

import (
	"time"

	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/workflow"
)

// FileDescriptor is a stored file reference as returned by the upload
// endpoint and accepted back as an attachment.
type FileDescriptor struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
	Type string `json:"type"`
}

// AssignmentCreateRequest describes the payload for creating an assignment.
// Rule-level validation (lengths, due date in the future, admin-only teacher
// requirement) happens in the workflow engine; tags here only guard shape.
type AssignmentCreateRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	SubjectID   uint             `json:"subject_id"`
	ClassID     uint             `json:"class_id"`
	TeacherID   uint             `json:"teacher_id"`
	TotalMarks  *int             `json:"total_marks"`
	DueDate     string           `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Status      string           `json:"status" validate:"omitempty,oneof=draft published"`
	Attachments []FileDescriptor `json:"attachments" validate:"omitempty,dive"`
}

// AssignmentUpdateRequest carries partial edits to an assignment.
type AssignmentUpdateRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	SubjectID   *uint             `json:"subject_id"`
	ClassID     *uint             `json:"class_id"`
	TotalMarks  *int              `json:"total_marks"`
	DueDate     *string           `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Attachments *[]FileDescriptor `json:"attachments" validate:"omitempty,dive"`
}

// SubjectLite summarizes a subject in assignment responses.
type SubjectLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// ClassLite summarizes a class in assignment responses.
type ClassLite struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section"`
}

// UserLite summarizes a user without exposing full profile data.
type UserLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionStats aggregates submission counts for the teacher view.
type SubmissionStats struct {
	Total   int64 `json:"total"`
	Graded  int64 `json:"graded"`
	Pending int64 `json:"pending"`
	Late    int64 `json:"late"`
}

// AssignmentResponse is the serialized representation returned to clients.
// Status is the effective status classified against the time of the read,
// never the raw stored value.
type AssignmentResponse struct {
	ID                uint                `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	TotalMarks        int                 `json:"total_marks"`
	DueDate           time.Time           `json:"due_date"`
	Status            string              `json:"status"`
	Attachments       []FileDescriptor    `json:"attachments"`
	Subject           SubjectLite         `json:"subject"`
	Class             ClassLite           `json:"class"`
	Teacher           UserLite            `json:"teacher"`
	SubmissionStats   *SubmissionStats    `json:"submission_stats,omitempty"`
	MySubmission      *SubmissionResponse `json:"my_submission,omitempty"`
	CanEditSubmission *bool               `json:"can_edit_submission,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// AssignmentListResponse is a paginated assignment listing.
type AssignmentListResponse struct {
	Items      []AssignmentResponse `json:"items"`
	Pagination Pagination           `json:"pagination"`
}

// NewAssignmentResponse converts a model into a DTO, resolving the effective
// status at the supplied instant.
func NewAssignmentResponse(model models.Assignment, now time.Time) AssignmentResponse {
	response := AssignmentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		TotalMarks:  model.TotalMarks,
		DueDate:     model.DueDate,
		Status:      workflow.ClassifyAssignment(model, now),
		Attachments: newAttachmentDescriptors(model.Attachments),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	if model.Subject.ID != 0 {
		response.Subject = SubjectLite{ID: model.Subject.ID, Name: model.Subject.Name, Code: model.Subject.Code}
	}
	if model.Class.ID != 0 {
		response.Class = ClassLite{ID: model.Class.ID, Name: model.Class.Name, Section: model.Class.Section}
	}
	if model.Teacher.ID != 0 {
		response.Teacher = UserLite{ID: model.Teacher.ID, Name: model.Teacher.Name, Email: model.Teacher.Email}
	}

	return response
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, now time.Time) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, now))
	}

	return responses
}

func newAttachmentDescriptors(attachments []models.AssignmentAttachment) []FileDescriptor {
	descriptors := make([]FileDescriptor, 0, len(attachments))
	for _, attachment := range attachments {
		descriptors = append(descriptors, FileDescriptor{
			Name: attachment.Name,
			URL:  attachment.URL,
			Type: attachment.FileType,
		})
	}

	return descriptors
}
