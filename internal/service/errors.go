package service

import (
	"errors"

	"github.com/ssms-dev/ssms-api/internal/workflow"
)

var (
	// ErrAssignmentNotFound indicates the requested assignment does not exist
	// or is not visible to the caller.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrNotAssignmentOwner indicates a teacher tried to manage another
	// teacher's assignment.
	ErrNotAssignmentOwner = errors.New("assignment belongs to another teacher")
	// ErrAssignmentHasSubmissions blocks deleting an assignment that
	// submissions still reference.
	ErrAssignmentHasSubmissions = errors.New("assignment has submissions and cannot be deleted")
	// ErrTotalMarksLocked blocks changing totalMarks once grading bounds
	// depend on it.
	ErrTotalMarksLocked = errors.New("total marks cannot change once submissions exist")
	// ErrAlreadyPublished indicates the draft-to-published transition was
	// attempted on a non-draft assignment.
	ErrAlreadyPublished = errors.New("assignment is already published")
	// ErrAssignmentNotOpen indicates a student action against a draft
	// assignment.
	ErrAssignmentNotOpen = errors.New("assignment is not open for submissions")
	// ErrSubmissionExists indicates a second submission for the same
	// (assignment, student) pair.
	ErrSubmissionExists = errors.New("submission already exists for this assignment")
	// ErrSubmissionLocked indicates an edit on a graded submission.
	ErrSubmissionLocked = errors.New("submission has been graded and can no longer be edited")
	// ErrSubmissionWindowClosed indicates an edit after the due date.
	ErrSubmissionWindowClosed = errors.New("submission window has closed")
	// ErrNotSubmissionOwner indicates a student touching another student's
	// submission.
	ErrNotSubmissionOwner = errors.New("submission belongs to another student")
)

// ValidationError carries the workflow field map across the service boundary
// so handlers can surface every violation inline next to its field.
type ValidationError struct {
	Fields workflow.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// AsValidationError unwraps err into a ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var target *ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor acts in an administrative capacity.
func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}
