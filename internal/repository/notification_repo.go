package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"hangoutapp/internal/model"
	"hangoutapp/internal/util"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *model.Notification) error
	FindByID(id string) (*model.Notification, error)
	FindByUserID(userID string, limit, offset int) ([]*model.Notification, error)
	FindUnreadByUserID(userID string) ([]*model.Notification, error)
	CountUnreadByUserID(userID string) (int64, error)
	MarkAsRead(id string) error
	MarkAllAsRead(userID string) error
	Delete(id string) error
}

type notificationRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	notificationUnreadCachePrefix = "notifications:unread:"
	notificationCountCachePrefix  = "notifications:count:"
	notificationCacheExpiration   = 10 * time.Minute
)

func NewNotificationRepository(db *gorm.DB, redis *util.RedisClient) NotificationRepository {
	return &notificationRepository{
		db:    db,
		redis: redis,
	}
}

func (r *notificationRepository) Create(notification *model.Notification) error {
	if err := r.db.Create(notification).Error; err != nil {
		return err
	}

	r.invalidateUnreadCaches(notification.UserID)

	return nil
}

func (r *notificationRepository) FindByID(id string) (*model.Notification, error) {
	var notification model.Notification
	if err := r.db.Where("id = ?", id).First(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// FindByUserID returns the user's notifications newest first, with pagination.
func (r *notificationRepository) FindByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.Preload("Sender").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// FindUnreadByUserID returns unread notifications, served from cache when warm.
func (r *notificationRepository) FindUnreadByUserID(userID string) ([]*model.Notification, error) {
	if r.redis != nil {
		if cached, err := r.redis.Get(notificationUnreadCachePrefix + userID); err == nil {
			var notifications []*model.Notification
			if err := json.Unmarshal([]byte(cached), &notifications); err == nil {
				return notifications, nil
			}
		}
	}

	var notifications []*model.Notification
	err := r.db.Preload("Sender").
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(notifications); err == nil {
			r.redis.Set(notificationUnreadCachePrefix+userID, string(data), notificationCacheExpiration)
		}
	}

	return notifications, nil
}

func (r *notificationRepository) CountUnreadByUserID(userID string) (int64, error) {
	if r.redis != nil {
		if cached, err := r.redis.Get(notificationCountCachePrefix + userID); err == nil {
			var count int64
			if _, err := fmt.Sscanf(cached, "%d", &count); err == nil {
				return count, nil
			}
		}
	}

	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	if r.redis != nil {
		r.redis.Set(notificationCountCachePrefix+userID, fmt.Sprintf("%d", count), notificationCacheExpiration)
	}

	return count, nil
}

func (r *notificationRepository) MarkAsRead(id string) error {
	var notification model.Notification
	if err := r.db.Where("id = ?", id).First(&notification).Error; err != nil {
		return err
	}

	now := time.Now()
	err := r.db.Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error
	if err != nil {
		return err
	}

	r.invalidateUnreadCaches(notification.UserID)

	return nil
}

func (r *notificationRepository) MarkAllAsRead(userID string) error {
	now := time.Now()
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error
	if err != nil {
		return err
	}

	r.invalidateUnreadCaches(userID)

	return nil
}

func (r *notificationRepository) Delete(id string) error {
	var notification model.Notification
	if err := r.db.Where("id = ?", id).First(&notification).Error; err != nil {
		return err
	}

	if err := r.db.Delete(&notification).Error; err != nil {
		return err
	}

	r.invalidateUnreadCaches(notification.UserID)

	return nil
}

func (r *notificationRepository) invalidateUnreadCaches(userID string) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(notificationUnreadCachePrefix + userID)
	r.redis.Delete(notificationCountCachePrefix + userID)
}
