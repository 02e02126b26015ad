package service

import (
	"context"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
	listCalls   int
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: map[uint]models.Assignment{}, nextID: 1}
}

func (f *fakeAssignmentRepo) put(assignment models.Assignment) models.Assignment {
	if assignment.ID == 0 {
		assignment.ID = f.nextID
		f.nextID++
	} else if assignment.ID >= f.nextID {
		f.nextID = assignment.ID + 1
	}
	f.assignments[assignment.ID] = assignment
	return assignment
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	f.listCalls++
	matched := make([]models.Assignment, 0)
	for _, assignment := range f.assignments {
		switch filter.Status {
		case models.AssignmentStatusDraft:
			if assignment.Status != models.AssignmentStatusDraft {
				continue
			}
		case models.AssignmentStatusPublished:
			if assignment.Status != models.AssignmentStatusPublished {
				continue
			}
			if !filter.IncludeExpired && assignment.DueDate.Before(filter.Now) {
				continue
			}
		case models.AssignmentStatusExpired:
			if assignment.Status != models.AssignmentStatusPublished || !assignment.DueDate.Before(filter.Now) {
				continue
			}
		}
		if filter.ClassID != nil && assignment.ClassID != *filter.ClassID {
			continue
		}
		if filter.SubjectID != nil && assignment.SubjectID != *filter.SubjectID {
			continue
		}
		if filter.TeacherID != nil && assignment.TeacherID != *filter.TeacherID {
			continue
		}
		matched = append(matched, assignment)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].DueDate.Before(matched[j].DueDate) })
	return matched, int64(len(matched)), nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	*assignment = f.put(*assignment)
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := f.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := f.assignments[assignment.ID]
	attachments := stored.Attachments
	f.assignments[assignment.ID] = *assignment
	entry := f.assignments[assignment.ID]
	entry.Attachments = attachments
	f.assignments[assignment.ID] = entry
	return nil
}

func (f *fakeAssignmentRepo) ReplaceAttachments(ctx context.Context, assignmentID uint, attachments []models.AssignmentAttachment) error {
	assignment, ok := f.assignments[assignmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.Attachments = attachments
	f.assignments[assignmentID] = assignment
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.assignments, id)
	return nil
}

type fakeSubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: map[uint]models.Submission{}, nextID: 1}
}

func (f *fakeSubmissionRepo) put(submission models.Submission) models.Submission {
	if submission.ID == 0 {
		submission.ID = f.nextID
		f.nextID++
	} else if submission.ID >= f.nextID {
		f.nextID = submission.ID + 1
	}
	f.submissions[submission.ID] = submission
	return submission
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, int64, error) {
	matched := make([]models.Submission, 0)
	for _, submission := range f.submissions {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		if filter.IsLate != nil && submission.IsLate != *filter.IsLate {
			continue
		}
		if filter.SubjectID != nil && submission.Assignment.SubjectID != *filter.SubjectID {
			continue
		}
		matched = append(matched, submission)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, int64(len(matched)), nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	for _, submission := range f.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	*submission = f.put(*submission)
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	if _, ok := f.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := f.submissions[submission.ID]
	files := stored.Files
	f.submissions[submission.ID] = *submission
	entry := f.submissions[submission.ID]
	entry.Files = files
	f.submissions[submission.ID] = entry
	return nil
}

func (f *fakeSubmissionRepo) ReplaceFiles(ctx context.Context, submissionID uint, files []models.SubmissionFile) error {
	submission, ok := f.submissions[submissionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	submission.Files = files
	f.submissions[submissionID] = submission
	return nil
}

func (f *fakeSubmissionRepo) CountForAssignment(ctx context.Context, assignmentID uint) (int64, error) {
	var count int64
	for _, submission := range f.submissions {
		if submission.AssignmentID == assignmentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionRepo) AggregateByAssignment(ctx context.Context, assignmentIDs []uint) (map[uint]repository.SubmissionAggregate, error) {
	wanted := make(map[uint]struct{}, len(assignmentIDs))
	for _, id := range assignmentIDs {
		wanted[id] = struct{}{}
	}
	aggregates := map[uint]repository.SubmissionAggregate{}
	for _, submission := range f.submissions {
		if _, ok := wanted[submission.AssignmentID]; !ok {
			continue
		}
		agg := aggregates[submission.AssignmentID]
		agg.AssignmentID = submission.AssignmentID
		agg.Total++
		if submission.IsLate {
			agg.Late++
		}
		if submission.IsGraded() && submission.MarksObtained != nil {
			agg.Graded++
			agg.MarksSum += int64(*submission.MarksObtained)
		}
		aggregates[submission.AssignmentID] = agg
	}
	return aggregates, nil
}

type fakeUserRepo struct {
	users map[uint]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[uint]models.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) ListStudentsByClass(ctx context.Context, classID uint) ([]models.User, error) {
	students := make([]models.User, 0)
	for _, user := range f.users {
		if user.Role == models.RoleStudent && user.ClassID != nil && *user.ClassID == classID {
			students = append(students, user)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}
