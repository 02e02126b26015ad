package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	Status       *string
	IsLate       *bool
	SubjectID    *uint
	Page         int
	PageSize     int
}

// SubmissionAggregate is a per-assignment rollup used by analytics.
type SubmissionAggregate struct {
	AssignmentID uint
	Total        int64
	Graded       int64
	Late         int64
	MarksSum     int64
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	ReplaceFiles(ctx context.Context, submissionID uint, files []models.SubmissionFile) error
	CountForAssignment(ctx context.Context, assignmentID uint) (int64, error)
	AggregateByAssignment(ctx context.Context, assignmentIDs []uint) (map[uint]SubmissionAggregate, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Student").
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error) {
	query := r.baseQuery(ctx)

	if filter.AssignmentID != nil {
		query = query.Where("submissions.assignment_id = ?", *filter.AssignmentID)
	}
	if filter.StudentID != nil {
		query = query.Where("submissions.student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("submissions.status = ?", *filter.Status)
	}
	if filter.IsLate != nil {
		query = query.Where("submissions.is_late = ?", *filter.IsLate)
	}
	if filter.SubjectID != nil {
		query = query.Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
			Where("assignments.subject_id = ?", *filter.SubjectID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("submissions.created_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var submissions []models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("submissions.assignment_id = ?", assignmentID).
		Where("submissions.student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Files", "Assignment", "Student").Save(submission).Error
}

func (r *submissionRepository) ReplaceFiles(ctx context.Context, submissionID uint, files []models.SubmissionFile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", submissionID).Delete(&models.SubmissionFile{}).Error; err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}
		for i := range files {
			files[i].ID = 0
			files[i].SubmissionID = submissionID
			files[i].Position = i
		}
		return tx.Create(&files).Error
	})
}

func (r *submissionRepository) CountForAssignment(ctx context.Context, assignmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error
	return count, err
}

func (r *submissionRepository) AggregateByAssignment(ctx context.Context, assignmentIDs []uint) (map[uint]SubmissionAggregate, error) {
	if len(assignmentIDs) == 0 {
		return map[uint]SubmissionAggregate{}, nil
	}

	var rows []SubmissionAggregate
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select(`assignment_id,
			COUNT(*) AS total,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS graded,
			SUM(CASE WHEN is_late THEN 1 ELSE 0 END) AS late,
			COALESCE(SUM(CASE WHEN marks_obtained IS NOT NULL THEN marks_obtained ELSE 0 END), 0) AS marks_sum`,
			models.SubmissionStatusGraded).
		Where("assignment_id IN ?", assignmentIDs).
		Group("assignment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	aggregates := make(map[uint]SubmissionAggregate, len(rows))
	for _, row := range rows {
		aggregates[row.AssignmentID] = row
	}

	return aggregates, nil
}
