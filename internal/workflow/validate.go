// Package workflow implements the assignment lifecycle rules: form
// validation, submission eligibility, status classification, grading bounds
// and filter composition. Everything in this package is a pure function of
// its inputs; callers pass the current time explicitly so time-dependent
// answers are always derived fresh.
package workflow

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldErrors maps a form field name to a human-readable violation message.
// An empty map means the input is valid.
type FieldErrors map[string]string

// HasErrors reports whether any rule was violated.
func (f FieldErrors) HasErrors() bool {
	return len(f) > 0
}

// AssignmentInput is the candidate payload for creating or editing an
// assignment. TotalMarks and DueDate are pointers so "absent" can be told
// apart from zero values.
type AssignmentInput struct {
	Title       string
	Description string
	Subject     string
	Class       string
	Teacher     string
	TotalMarks  *int
	DueDate     *time.Time
}

// ValidateAssignment checks every rule independently and reports all
// violations at once. actingAsAdmin marks a caller creating on behalf of a
// teacher, which makes the teacher reference mandatory.
func ValidateAssignment(input AssignmentInput, actingAsAdmin bool, now time.Time) FieldErrors {
	errs := FieldErrors{}

	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		errs["title"] = "Title is required"
	case utf8.RuneCountInString(title) < 5:
		errs["title"] = "Title must be at least 5 characters"
	}

	if strings.TrimSpace(input.Description) == "" {
		errs["description"] = "Description is required"
	}

	if strings.TrimSpace(input.Subject) == "" {
		errs["subject"] = "Subject is required"
	}

	if strings.TrimSpace(input.Class) == "" {
		errs["class"] = "Class is required"
	}

	if actingAsAdmin && strings.TrimSpace(input.Teacher) == "" {
		errs["teacher"] = "Teacher is required"
	}

	if input.TotalMarks == nil || *input.TotalMarks < 1 {
		errs["totalMarks"] = "Total marks must be at least 1"
	}

	switch {
	case input.DueDate == nil:
		errs["dueDate"] = "Due date is required"
	case !input.DueDate.After(now):
		errs["dueDate"] = "Due date must be in the future"
	}

	return errs
}

// ValidateGrade checks grading input against the target assignment's maximum.
// Zero marks are valid; a nil pointer means the value was absent.
func ValidateGrade(marksObtained *int, totalMarks int) FieldErrors {
	errs := FieldErrors{}

	switch {
	case marksObtained == nil:
		errs["marksObtained"] = "Marks are required"
	case *marksObtained < 0 || *marksObtained > totalMarks:
		errs["marksObtained"] = fmt.Sprintf("Marks must be between 0 and %d", totalMarks)
	}

	return errs
}
