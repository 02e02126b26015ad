package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/models"
)

// AssignmentFilter narrows assignment list queries. Status accepts the
// effective values draft, published and expired; expired is resolved against
// Now since it is a derived classification, not a stored state.
type AssignmentFilter struct {
	Status string
	Now    time.Time
	// IncludeExpired widens a published filter to everything that has ever
	// been published, regardless of due date.
	IncludeExpired bool
	ClassID        *uint
	SubjectID      *uint
	TeacherID      *uint
	Search         string
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	PageSize       int
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	ReplaceAttachments(ctx context.Context, assignmentID uint, attachments []models.AssignmentAttachment) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Assignment{}).
		Preload("Subject").
		Preload("Class").
		Preload("Teacher").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}

	query := r.baseQuery(ctx)

	switch filter.Status {
	case models.AssignmentStatusDraft:
		query = query.Where("status = ?", models.AssignmentStatusDraft)
	case models.AssignmentStatusPublished:
		if filter.IncludeExpired {
			query = query.Where("status = ?", models.AssignmentStatusPublished)
		} else {
			query = query.Where("status = ? AND due_date >= ?", models.AssignmentStatusPublished, now)
		}
	case models.AssignmentStatusExpired:
		query = query.Where("status = ? AND due_date < ?", models.AssignmentStatusPublished, now)
	}

	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}
	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	if filter.DateFrom != nil {
		query = query.Where("due_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("due_date <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("due_date ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var assignments []models.Assignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.baseQuery(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit("Attachments").Save(assignment).Error
}

func (r *assignmentRepository) ReplaceAttachments(ctx context.Context, assignmentID uint, attachments []models.AssignmentAttachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", assignmentID).Delete(&models.AssignmentAttachment{}).Error; err != nil {
			return err
		}
		if len(attachments) == 0 {
			return nil
		}
		for i := range attachments {
			attachments[i].ID = 0
			attachments[i].AssignmentID = assignmentID
			attachments[i].Position = i
		}
		return tx.Create(&attachments).Error
	})
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Assignment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
