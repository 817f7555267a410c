package repository

import (
	"hangoutapp/internal/model"
	"hangoutapp/internal/util"

	"gorm.io/gorm"
)

type ConnectionRequestRepository interface {
	Create(request *model.ConnectionRequest) error
	FindByPair(fromID, toID string) (*model.ConnectionRequest, error)
	FindPendingByReceiver(toID string) ([]*model.ConnectionRequest, error)
	FindBySender(fromID string) ([]*model.ConnectionRequest, error)
	Accept(fromID, toID string) (*model.Connection, error)
	DeleteIfPending(fromID, toID string) error
}

type connectionRequestRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

func NewConnectionRequestRepository(db *gorm.DB, redis *util.RedisClient) ConnectionRequestRepository {
	return &connectionRequestRepository{
		db:    db,
		redis: redis,
	}
}

func (r *connectionRequestRepository) Create(request *model.ConnectionRequest) error {
	return r.db.Create(request).Error
}

func (r *connectionRequestRepository) FindByPair(fromID, toID string) (*model.ConnectionRequest, error) {
	var request model.ConnectionRequest
	err := r.db.Preload("From").Preload("To").
		Where("from_id = ? AND to_id = ?", fromID, toID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindPendingByReceiver finds incoming pending connection requests.
func (r *connectionRequestRepository) FindPendingByReceiver(toID string) ([]*model.ConnectionRequest, error) {
	var requests []*model.ConnectionRequest
	err := r.db.Preload("From").
		Where("to_id = ? AND status = ?", toID, model.ConnectionRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// FindBySender finds connection requests sent by a user, any status.
func (r *connectionRequestRepository) FindBySender(fromID string) ([]*model.ConnectionRequest, error) {
	var requests []*model.ConnectionRequest
	err := r.db.Preload("To").
		Where("from_id = ?", fromID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// Accept flips a pending request to accepted and creates the connection edge
// in the same transaction. The conditional update on status guards against a
// concurrent accept or unsend; the request row is kept as history.
func (r *connectionRequestRepository) Accept(fromID, toID string) (*model.Connection, error) {
	connection := model.NewConnection(fromID, toID)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ConnectionRequest{}).
			Where("from_id = ? AND to_id = ? AND status = ?", fromID, toID, model.ConnectionRequestStatusPending).
			Update("status", model.ConnectionRequestStatusAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(connection).Error
	})
	if err != nil {
		return nil, err
	}

	// Invalidate connection caches for both participants
	if r.redis != nil {
		r.redis.Delete(connectionsOfCachePrefix + fromID)
		r.redis.Delete(connectionsOfCachePrefix + toID)
	}

	return connection, nil
}

// DeleteIfPending removes a pending request (sender unsend or receiver reject).
func (r *connectionRequestRepository) DeleteIfPending(fromID, toID string) error {
	result := r.db.
		Where("from_id = ? AND to_id = ? AND status = ?", fromID, toID, model.ConnectionRequestStatusPending).
		Delete(&model.ConnectionRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
