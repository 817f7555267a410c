package repository

import (
	"time"

	"hangoutapp/internal/model"

	"gorm.io/gorm"
)

type HangoutRequestRepository interface {
	Create(request *model.HangoutRequest) error
	FindByPair(fromID, toID string) (*model.HangoutRequest, error)
	FindPendingByReceiver(toID string) ([]*model.HangoutRequest, error)
	FindBySender(fromID string) ([]*model.HangoutRequest, error)
	UpdateStatusIfPending(fromID, toID, status string) error
	DeleteIfPending(fromID, toID string) error
	ExpireIfPending(fromID, toID string) error
}

type hangoutRequestRepository struct {
	db *gorm.DB
}

func NewHangoutRequestRepository(db *gorm.DB) HangoutRequestRepository {
	return &hangoutRequestRepository{db: db}
}

// Create stores a new hangout request. A settled row (accepted, declined or
// expired) for the same pair is replaced so the pair can be re-invited; only
// a pending row blocks the insert, via the unique pair index.
func (r *hangoutRequestRepository) Create(request *model.HangoutRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("from_id = ? AND to_id = ? AND status <> ?",
			request.FromID, request.ToID, model.HangoutStatusPending).
			Delete(&model.HangoutRequest{}).Error; err != nil {
			return err
		}
		return tx.Create(request).Error
	})
}

func (r *hangoutRequestRepository) FindByPair(fromID, toID string) (*model.HangoutRequest, error) {
	var request model.HangoutRequest
	err := r.db.Preload("From").Preload("To").
		Where("from_id = ? AND to_id = ?", fromID, toID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindPendingByReceiver finds pending incoming hangout requests, oldest last.
// Expiry filtering is done by the service layer, which also flips stale rows.
func (r *hangoutRequestRepository) FindPendingByReceiver(toID string) ([]*model.HangoutRequest, error) {
	var requests []*model.HangoutRequest
	err := r.db.Preload("From").
		Where("to_id = ? AND status = ?", toID, model.HangoutStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// FindBySender finds hangout requests sent by a user, any status.
func (r *hangoutRequestRepository) FindBySender(fromID string) ([]*model.HangoutRequest, error) {
	var requests []*model.HangoutRequest
	err := r.db.Preload("To").
		Where("from_id = ?", fromID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateStatusIfPending transitions a request out of pending. The conditional
// update is the compare-and-set that keeps concurrent accept/decline/cancel
// from both winning.
func (r *hangoutRequestRepository) UpdateStatusIfPending(fromID, toID, status string) error {
	result := r.db.Model(&model.HangoutRequest{}).
		Where("from_id = ? AND to_id = ? AND status = ?", fromID, toID, model.HangoutStatusPending).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteIfPending removes a pending request (sender cancel).
func (r *hangoutRequestRepository) DeleteIfPending(fromID, toID string) error {
	result := r.db.
		Where("from_id = ? AND to_id = ? AND status = ?", fromID, toID, model.HangoutStatusPending).
		Delete(&model.HangoutRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExpireIfPending lazily flips a pending request past its expiry to expired.
func (r *hangoutRequestRepository) ExpireIfPending(fromID, toID string) error {
	return r.db.Model(&model.HangoutRequest{}).
		Where("from_id = ? AND to_id = ? AND status = ? AND expires_at < ?",
			fromID, toID, model.HangoutStatusPending, time.Now()).
		Update("status", model.HangoutStatusExpired).Error
}
