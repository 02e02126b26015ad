package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/models"
)

// UploadRepository persists upload audit records.
type UploadRepository interface {
	Create(ctx context.Context, record *models.UploadRecord) error
	DeleteByIDs(ctx context.Context, ids []uint) error
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository instantiates the repository.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, record *models.UploadRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *uploadRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&models.UploadRecord{}, ids).Error
}
