package repositories

import (
	"context"
	"errors"

	"clinic-crm-server/internal/models"

	"gorm.io/gorm"
)

// UserRepository looks up identity/role facts for the scheduling engine
// and auth layer.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindActiveDoctor(ctx context.Context, id string) (*models.User, error)
	FindActiveDoctors(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a gorm-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindActiveDoctor returns the user only if it holds the doctor role and
// is active, i.e. is schedulable.
func (r *userRepository) FindActiveDoctor(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_active = ?", id, models.RoleDoctor, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindActiveDoctors(ctx context.Context) ([]models.User, error) {
	var doctors []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.RoleDoctor, true).
		Order("last_name asc, first_name asc").
		Find(&doctors).Error
	return doctors, err
}

var _ UserRepository = (*userRepository)(nil)
