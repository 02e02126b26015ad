package workflow

import (
	"time"

	"github.com/ssms-dev/ssms-api/internal/models"
)

// CanEditSubmission decides whether a student may create or modify their
// submission right now. Rules are evaluated in order, first match wins:
//
//  1. no submission yet: eligible, a first submission may always be created
//     (it is recorded as late once the due date has passed);
//  2. graded: never eligible, grading freezes the submission permanently;
//  3. past due: the edit window has closed regardless of grading state;
//  4. otherwise eligible.
//
// The answer is time-dependent and can flip without any explicit event, so
// callers must pass a fresh now on every evaluation.
func CanEditSubmission(assignment models.Assignment, existing *models.Submission, now time.Time) bool {
	if existing == nil {
		return true
	}
	if existing.IsGraded() {
		return false
	}
	return !assignment.IsPastDue(now)
}
