package repository

import (
	"hangoutapp/internal/model"

	"gorm.io/gorm"
)

type ApprovalRepository interface {
	Create(approval *model.SecondDegreeApproval) error
	FindByID(id string) (*model.SecondDegreeApproval, error)
	FindByPair(fromID, toID string) (*model.SecondDegreeApproval, error)
	FindPendingByMutual(mutualID string) ([]*model.SecondDegreeApproval, error)
	FindBySender(fromID string) ([]*model.SecondDegreeApproval, error)
	Decide(id, decision string, spawn *model.HangoutRequest) error
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

// Create stores a new approval. A settled row (approved or declined) for the
// same pair is replaced so the requester can ask again; only a pending row
// blocks the insert, via the unique pair index.
func (r *approvalRepository) Create(approval *model.SecondDegreeApproval) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("from_id = ? AND to_id = ? AND status <> ?",
			approval.FromID, approval.ToID, model.ApprovalStatusPending).
			Delete(&model.SecondDegreeApproval{}).Error; err != nil {
			return err
		}
		return tx.Create(approval).Error
	})
}

func (r *approvalRepository) FindByID(id string) (*model.SecondDegreeApproval, error) {
	var approval model.SecondDegreeApproval
	err := r.db.Preload("From").Preload("To").Preload("Mutual").
		Where("id = ?", id).First(&approval).Error
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) FindByPair(fromID, toID string) (*model.SecondDegreeApproval, error) {
	var approval model.SecondDegreeApproval
	err := r.db.Where("from_id = ? AND to_id = ?", fromID, toID).First(&approval).Error
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// FindPendingByMutual finds approvals waiting on a broker's decision.
func (r *approvalRepository) FindPendingByMutual(mutualID string) ([]*model.SecondDegreeApproval, error) {
	var approvals []*model.SecondDegreeApproval
	err := r.db.Preload("From").Preload("To").
		Where("mutual_id = ? AND status = ?", mutualID, model.ApprovalStatusPending).
		Order("created_at DESC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

// FindBySender finds approvals created for a requester, any status.
func (r *approvalRepository) FindBySender(fromID string) ([]*model.SecondDegreeApproval, error) {
	var approvals []*model.SecondDegreeApproval
	err := r.db.Preload("To").Preload("Mutual").
		Where("from_id = ?", fromID).
		Order("created_at DESC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

// Decide flips a pending approval to the given decision. When the decision is
// approved, the spawned hangout request is created in the same transaction,
// replacing any settled request for the pair so an old declined or expired
// row cannot block the spawn. The conditional update on status means a second
// decision for the same approval finds zero rows and spawns nothing.
func (r *approvalRepository) Decide(id, decision string, spawn *model.HangoutRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.SecondDegreeApproval{}).
			Where("id = ? AND status = ?", id, model.ApprovalStatusPending).
			Update("status", decision)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if spawn != nil {
			if err := tx.Where("from_id = ? AND to_id = ? AND status <> ?",
				spawn.FromID, spawn.ToID, model.HangoutStatusPending).
				Delete(&model.HangoutRequest{}).Error; err != nil {
				return err
			}
			return tx.Create(spawn).Error
		}
		return nil
	})
}
