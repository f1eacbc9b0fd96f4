package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return errors.WithStack(r.db.Create(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &user, nil
}

// Exists reports whether a live user with the given ID exists
func (r *GormUserRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.WithStack(err)
	}
	return count > 0, nil
}

// Update applies the given column changes to a user
func (r *GormUserRepository) Update(id string, fields map[string]any) error {
	return errors.WithStack(r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error)
}

// EmailInUse reports whether another user already has the email
func (r *GormUserRepository) EmailInUse(email, exceptID string) (bool, error) {
	return r.inUse("email", email, exceptID)
}

// PhoneInUse reports whether another user already has the phone number
func (r *GormUserRepository) PhoneInUse(phone, exceptID string) (bool, error) {
	return r.inUse("phone", phone, exceptID)
}

func (r *GormUserRepository) inUse(column, value, exceptID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, exceptID).
		Count(&count).Error
	if err != nil {
		return false, errors.WithStack(err)
	}
	return count > 0, nil
}
