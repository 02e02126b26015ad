package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/models"
)

// UserRepository defines lookups over user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	ListStudentsByClass(ctx context.Context, classID uint) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) ListStudentsByClass(ctx context.Context, classID uint) ([]models.User, error) {
	var students []models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", models.RoleStudent).
		Where("class_id = ?", classID).
		Order("name ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}

	return students, nil
}
