package models

import "time"

// Submission statuses. A submission is created as "submitted" or "late"
// depending on when it first arrives relative to the due date, and moves to
// "graded" when a grader records marks.
const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusLate      = "late"
	SubmissionStatusGraded    = "graded"
)

// Submission is a student's one-per-assignment response plus its grading
// outcome. The (assignment, student) pair is unique.
type Submission struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	AssignmentID    uint             `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID       uint             `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Files           []SubmissionFile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"files"`
	SubmissionNotes string           `gorm:"type:text" json:"submission_notes"`
	SubmittedAt     time.Time        `gorm:"not null" json:"submitted_at"`
	IsLate          bool             `gorm:"not null" json:"is_late"`
	Status          string           `gorm:"size:32;not null" json:"status"`
	MarksObtained   *int             `json:"marks_obtained"`
	Feedback        string           `gorm:"type:text" json:"feedback"`
	GradedBy        *uint            `json:"graded_by"`
	GradedAt        *time.Time       `json:"graded_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Assignment      Assignment       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student         User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsGraded reports whether a grader has recorded marks for the submission.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// SubmissionFile is one stored file descriptor belonging to a submission,
// kept in upload order.
type SubmissionFile struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SubmissionID uint   `gorm:"not null;index" json:"submission_id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	URL          string `gorm:"size:512;not null" json:"url"`
	FileType     string `gorm:"size:64" json:"file_type"`
	Position     int    `gorm:"not null" json:"position"`
}
