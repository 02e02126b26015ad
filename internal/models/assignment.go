package models

import "time"

// Stored assignment statuses. "expired" is never stored: it is derived from
// the due date at read time (see workflow.ClassifyAssignment).
const (
	AssignmentStatusDraft     = "draft"
	AssignmentStatusPublished = "published"
	AssignmentStatusExpired   = "expired"
)

// Assignment is a gradable task issued by a teacher to a class for a subject.
type Assignment struct {
	ID          uint                   `gorm:"primaryKey" json:"id"`
	Title       string                 `gorm:"size:255;not null" json:"title"`
	Description string                 `gorm:"type:text;not null" json:"description"`
	SubjectID   uint                   `gorm:"not null" json:"subject_id"`
	ClassID     uint                   `gorm:"not null" json:"class_id"`
	TeacherID   uint                   `gorm:"not null" json:"teacher_id"`
	TotalMarks  int                    `gorm:"not null" json:"total_marks"`
	DueDate     time.Time              `gorm:"not null" json:"due_date"`
	Status      string                 `gorm:"size:32;not null;default:draft" json:"status"`
	Attachments []AssignmentAttachment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"attachments"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Subject     Subject                `json:"subject"`
	Class       SchoolClass            `json:"class"`
	Teacher     User                   `json:"teacher"`
	Submissions []Submission           `json:"-"`
}

// IsPastDue returns true when the deadline has already passed at the
// reference instant.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// AssignmentAttachment is one stored file descriptor attached to an
// assignment, kept in upload order.
type AssignmentAttachment struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	AssignmentID uint   `gorm:"not null;index" json:"assignment_id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	URL          string `gorm:"size:512;not null" json:"url"`
	FileType     string `gorm:"size:64" json:"file_type"`
	Position     int    `gorm:"not null" json:"position"`
}
