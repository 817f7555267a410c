package repository

import (
	"time"

	"hangoutapp/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id string) (*model.User, error)
	FindByIDs(ids []string) ([]model.User, error)
	FindByPhone(phone string) (*model.User, error)
	SearchUsers(keyword string, limit, offset int) ([]model.User, error)
	FindAll(limit, offset int) ([]model.User, int64, error)
	Update(user *model.User) error
	UpdateOTP(phone string, otpHash string, expiresAt time.Time) error
	ClearOTP(userID string) error
	UpdateLastLogin(userID string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByPhone(phone string) (*model.User, error) {
	var user model.User
	err := r.db.Where("phone = ?", phone).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers searches users by name or phone
func (r *userRepository) SearchUsers(keyword string, limit, offset int) ([]model.User, error) {
	var users []model.User
	searchPattern := "%" + keyword + "%"

	query := r.db.
		Where("name ILIKE ? OR phone ILIKE ?", searchPattern, searchPattern).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&users)

	if query.Error != nil {
		return nil, query.Error
	}

	return users, nil
}

// FindAll gets all users with pagination
func (r *userRepository) FindAll(limit, offset int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	// Count total
	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get users with pagination
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error

	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) UpdateOTP(phone string, otpHash string, expiresAt time.Time) error {
	return r.db.Model(&model.User{}).
		Where("phone = ?", phone).
		Updates(map[string]interface{}{
			"otp_hash":       otpHash,
			"otp_expires_at": expiresAt,
		}).Error
}

func (r *userRepository) ClearOTP(userID string) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"otp_hash":       nil,
			"otp_expires_at": nil,
		}).Error
}

func (r *userRepository) UpdateLastLogin(userID string) error {
	now := time.Now()
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login_at", now).Error
}
