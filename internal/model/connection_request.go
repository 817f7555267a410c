package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConnectionRequest is a directed proposal to connect. At most one row exists
// per ordered (from, to) pair.
type ConnectionRequest struct {
	ID        string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FromID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_connection_requests_pair;index" json:"from_id"`
	ToID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_connection_requests_pair;index" json:"to_id"`
	Status    string    `gorm:"type:varchar(20);default:'pending';not null" json:"status"` // pending, accepted
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	From User `gorm:"foreignKey:FromID;references:ID" json:"from,omitempty"`
	To   User `gorm:"foreignKey:ToID;references:ID" json:"to,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *ConnectionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (ConnectionRequest) TableName() string {
	return "connection_requests"
}

// Connection request status constants
const (
	ConnectionRequestStatusPending  = "pending"
	ConnectionRequestStatusAccepted = "accepted"
)
