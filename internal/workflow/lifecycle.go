package workflow

import (
	"time"

	"github.com/ssms-dev/ssms-api/internal/models"
)

// ClassifyAssignment resolves the effective assignment status at the given
// instant. Only draft and published are stored; a published assignment whose
// due date has passed reads as expired. The classification is re-derived on
// every read and never written back.
func ClassifyAssignment(assignment models.Assignment, now time.Time) string {
	if assignment.Status == models.AssignmentStatusPublished && assignment.IsPastDue(now) {
		return models.AssignmentStatusExpired
	}
	return assignment.Status
}

// SubmissionStatusAt returns the status a brand-new submission receives when
// first created at submittedAt, and whether it counts as late. Lateness is a
// historical fact fixed at creation time; edits never change it.
func SubmissionStatusAt(assignment models.Assignment, submittedAt time.Time) (status string, isLate bool) {
	if assignment.IsPastDue(submittedAt) {
		return models.SubmissionStatusLate, true
	}
	return models.SubmissionStatusSubmitted, false
}

// CanPublish reports whether the draft-to-published transition is legal.
// There is no reverse transition.
func CanPublish(assignment models.Assignment) bool {
	return assignment.Status == models.AssignmentStatusDraft
}

// CanChangeTotalMarks reports whether the assignment maximum may still be
// edited. Grading bounds depend on it, so it is frozen as soon as any
// submission exists.
func CanChangeTotalMarks(submissionCount int64) bool {
	return submissionCount == 0
}
