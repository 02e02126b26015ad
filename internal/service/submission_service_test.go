package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/models"
)

func newSubmissionServiceForTest(submissions *fakeSubmissionRepo, assignments *fakeAssignmentRepo, users *fakeUserRepo) SubmissionService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewSubmissionService(submissions, assignments, users, validate, testLogger())
}

func classStudent(id, classID uint) models.User {
	class := classID
	return models.User{ID: id, Name: "Student", Email: "student@example.com", Role: models.RoleStudent, ClassID: &class}
}

func submissionFiles() []dto.FileDescriptor {
	return []dto.FileDescriptor{
		{Name: "homework.pdf", URL: "https://cdn.example.com/homework.pdf", Type: "application/pdf"},
	}
}

func TestSubmissionServiceSubmitOnTime(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	assignment := assignments.put(models.Assignment{
		Title:      "Algebra set",
		ClassID:    3,
		TeacherID:  7,
		TotalMarks: 100,
		DueDate:    time.Now().Add(24 * time.Hour),
		Status:     models.AssignmentStatusPublished,
	})
	submissions := newFakeSubmissionRepo()
	svc := newSubmissionServiceForTest(submissions, assignments, newFakeUserRepo(classStudent(20, 3)))

	created, err := svc.Submit(context.Background(), 20, assignment.ID, dto.SubmissionCreateRequest{
		Files:           submissionFiles(),
		SubmissionNotes: "Solved all of them",
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, created.Status)
	require.False(t, created.IsLate)
	require.Len(t, created.Files, 1)
}

func TestSubmissionServiceFirstSubmissionAfterDueIsLate(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	assignment := assignments.put(models.Assignment{
		Title:     "Overdue set",
		ClassID:   3,
		TeacherID: 7,
		DueDate:   time.Now().Add(-time.Hour),
		Status:    models.AssignmentStatusPublished,
	})
	svc := newSubmissionServiceForTest(newFakeSubmissionRepo(), assignments, newFakeUserRepo(classStudent(20, 3)))

	created, err := svc.Submit(context.Background(), 20, assignment.ID, dto.SubmissionCreateRequest{Files: submissionFiles()})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusLate, created.Status)
	require.True(t, created.IsLate)
}

func TestSubmissionServiceSubmitRejectsDuplicates(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	assignment := assignments.put(models.Assignment{
		Title:     "One shot",
		ClassID:   3,
		TeacherID: 7,
		DueDate:   time.Now().Add(time.Hour),
		Status:    models.AssignmentStatusPublished,
	})
	submissions := newFakeSubmissionRepo()
	submissions.put(models.Submission{AssignmentID: assignment.ID, StudentID: 20, Status: models.SubmissionStatusSubmitted})
	svc := newSubmissionServiceForTest(submissions, assignments, newFakeUserRepo(classStudent(20, 3)))

	_, err := svc.Submit(context.Background(), 20, assignment.ID, dto.SubmissionCreateRequest{Files: submissionFiles()})
	require.ErrorIs(t, err, ErrSubmissionExists)
}

func TestSubmissionServiceSubmitRequiresPublishedAssignment(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	draft := assignments.put(models.Assignment{
		Title:     "Unpublished",
		ClassID:   3,
		TeacherID: 7,
		DueDate:   time.Now().Add(time.Hour),
		Status:    models.AssignmentStatusDraft,
	})
	otherClass := assignments.put(models.Assignment{
		Title:     "Different class",
		ClassID:   9,
		TeacherID: 7,
		DueDate:   time.Now().Add(time.Hour),
		Status:    models.AssignmentStatusPublished,
	})
	svc := newSubmissionServiceForTest(newFakeSubmissionRepo(), assignments, newFakeUserRepo(classStudent(20, 3)))

	_, err := svc.Submit(context.Background(), 20, draft.ID, dto.SubmissionCreateRequest{Files: submissionFiles()})
	require.ErrorIs(t, err, ErrAssignmentNotOpen)

	_, err = svc.Submit(context.Background(), 20, otherClass.ID, dto.SubmissionCreateRequest{Files: submissionFiles()})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmissionServiceUpdateGradedIsLocked(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	assignment := assignments.put(models.Assignment{
		Title:      "Graded already",
		ClassID:    3,
		TeacherID:  7,
		TotalMarks: 100,
		DueDate:    time.Now().Add(24 * time.Hour),
		Status:     models.AssignmentStatusPublished,
	})
	marks := 80
	submissions := newFakeSubmissionRepo()
	submission := submissions.put(models.Submission{
		AssignmentID:  assignment.ID,
		StudentID:     20,
		Status:        models.SubmissionStatusGraded,
		MarksObtained: &marks,
		Assignment:    assignment,
	})
	svc := newSubmissionServiceForTest(submissions, assignments, newFakeUserRepo(classStudent(20, 3)))

	notes := "please reconsider"
	_, err := svc.Update(context.Background(), 20, submission.ID, dto.SubmissionUpdateRequest{SubmissionNotes: &notes})
	// Grading freezes the submission even while the window is still open.
	require.ErrorIs(t, err, ErrSubmissionLocked)
}

func TestSubmissionServiceUpdateAfterDueDateIsClosed(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	assignment := assignments.put(models.Assignment{
		Title:     "Window closed",
		ClassID:   3,
		TeacherID: 7,
		DueDate:   time.Now().Add(-time.Hour),
		Status:    models.AssignmentStatusPublished,
	})
	submissions := newFakeSubmissionRepo()
	submission := submissions.put(models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    20,
		Status:       models.SubmissionStatusSubmitted,
		Assignment:   assignment,
	})
	svc := newSubmissionServiceForTest(submissions, assignments, newFakeUserRepo(classStudent(20, 3)))

	_, err := svc.Update(context.Background(), 20, submission.ID, dto.SubmissionUpdateRequest{Files: submissionFiles()})
	require.ErrorIs(t, err, ErrSubmissionWindowClosed)
}

func TestSubmissionServiceUpdateKeepsLateFlag(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	assignment := assignments.put(models.Assignment{
		Title:     "Late but editable",
		ClassID:   3,
		TeacherID: 7,
		DueDate:   time.Now().Add(time.Hour),
		Status:    models.AssignmentStatusPublished,
	})
	submissions := newFakeSubmissionRepo()
	submission := submissions.put(models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    20,
		Status:       models.SubmissionStatusLate,
		IsLate:       true,
		SubmittedAt:  time.Now().Add(-time.Minute),
		Assignment:   assignment,
	})
	svc := newSubmissionServiceForTest(submissions, assignments, newFakeUserRepo(classStudent(20, 3)))

	updated, err := svc.Update(context.Background(), 20, submission.ID, dto.SubmissionUpdateRequest{Files: submissionFiles()})
	require.NoError(t, err)
	require.True(t, updated.IsLate)
	require.Equal(t, models.SubmissionStatusLate, updated.Status)
}

func TestSubmissionServiceUpdateOwnershipEnforced(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	assignment := assignments.put(models.Assignment{
		Title:     "Not yours",
		ClassID:   3,
		TeacherID: 7,
		DueDate:   time.Now().Add(time.Hour),
		Status:    models.AssignmentStatusPublished,
	})
	submissions := newFakeSubmissionRepo()
	submission := submissions.put(models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    20,
		Status:       models.SubmissionStatusSubmitted,
		Assignment:   assignment,
	})
	svc := newSubmissionServiceForTest(submissions, assignments, newFakeUserRepo(classStudent(21, 3)))

	_, err := svc.Update(context.Background(), 21, submission.ID, dto.SubmissionUpdateRequest{Files: submissionFiles()})
	require.ErrorIs(t, err, ErrNotSubmissionOwner)
}

func TestSubmissionServiceGetMine(t *testing.T) {
	submissions := newFakeSubmissionRepo()
	mine := submissions.put(models.Submission{
		AssignmentID: 1,
		StudentID:    20,
		Status:       models.SubmissionStatusSubmitted,
	})
	svc := newSubmissionServiceForTest(submissions, newFakeAssignmentRepo(), newFakeUserRepo(classStudent(20, 3)))

	fetched, err := svc.GetMine(context.Background(), 20, mine.ID)
	require.NoError(t, err)
	require.Equal(t, mine.ID, fetched.ID)

	_, err = svc.GetMine(context.Background(), 21, mine.ID)
	require.ErrorIs(t, err, ErrNotSubmissionOwner)

	_, err = svc.GetMine(context.Background(), 20, 99)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionServiceListMineFiltersBySubject(t *testing.T) {
	submissions := newFakeSubmissionRepo()
	submissions.put(models.Submission{
		AssignmentID: 1,
		StudentID:    20,
		Status:       models.SubmissionStatusSubmitted,
		Assignment:   models.Assignment{ID: 1, SubjectID: 5},
	})
	submissions.put(models.Submission{
		AssignmentID: 2,
		StudentID:    20,
		Status:       models.SubmissionStatusSubmitted,
		Assignment:   models.Assignment{ID: 2, SubjectID: 6},
	})
	svc := newSubmissionServiceForTest(submissions, newFakeAssignmentRepo(), newFakeUserRepo(classStudent(20, 3)))

	subject := uint(5)
	listing, err := svc.ListMine(context.Background(), 20, "", &subject, 1, 10)
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	require.Equal(t, uint(1), listing.Items[0].AssignmentID)

	all, err := svc.ListMine(context.Background(), 20, "", nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
}

func TestSubmissionServiceStats(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	assignment := assignments.put(models.Assignment{
		Title:      "Stats source",
		ClassID:    3,
		TeacherID:  7,
		TotalMarks: 100,
		DueDate:    time.Now().Add(time.Hour),
		Status:     models.AssignmentStatusPublished,
	})
	submissions := newFakeSubmissionRepo()
	eighty := 80
	submissions.put(models.Submission{
		AssignmentID:  assignment.ID,
		StudentID:     20,
		Status:        models.SubmissionStatusGraded,
		MarksObtained: &eighty,
		Assignment:    assignment,
	})
	submissions.put(models.Submission{
		AssignmentID: 2,
		StudentID:    20,
		Status:       models.SubmissionStatusLate,
		IsLate:       true,
		Assignment:   models.Assignment{ID: 2, TotalMarks: 50},
	})
	svc := newSubmissionServiceForTest(submissions, assignments, newFakeUserRepo(classStudent(20, 3)))

	stats, err := svc.Stats(context.Background(), 20)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, int64(1), stats.OnTime)
	require.Equal(t, int64(1), stats.Late)
	require.Equal(t, int64(1), stats.Graded)
	require.Equal(t, int64(1), stats.Pending)
	require.InDelta(t, 80.0, stats.AveragePercentage, 0.01)
}
