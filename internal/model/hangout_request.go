package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HangoutRequest is a directed hangout proposal. Degree records whether it was
// sent directly (1) or released after broker approval (2). At most one row
// exists per ordered (from, to) pair.
type HangoutRequest struct {
	ID         string     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FromID     string     `gorm:"type:uuid;not null;uniqueIndex:idx_hangout_requests_pair;index" json:"from_id"`
	ToID       string     `gorm:"type:uuid;not null;uniqueIndex:idx_hangout_requests_pair;index" json:"to_id"`
	Idea       string     `gorm:"type:text" json:"idea"`
	EventType  string     `gorm:"type:varchar(100)" json:"event_type"`
	Time       string     `gorm:"type:varchar(255)" json:"time"`
	Place      string     `gorm:"type:varchar(255)" json:"place"`
	Status     string     `gorm:"type:varchar(20);default:'pending';not null" json:"status"` // pending, accepted, declined, expired
	Degree     int        `gorm:"not null" json:"degree"`                                    // 1 or 2
	ExpiresAt  *time.Time `gorm:"type:timestamp" json:"expires_at,omitempty"`
	ApprovedAt *time.Time `gorm:"type:timestamp" json:"approved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	From User `gorm:"foreignKey:FromID;references:ID" json:"from,omitempty"`
	To   User `gorm:"foreignKey:ToID;references:ID" json:"to,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *HangoutRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (HangoutRequest) TableName() string {
	return "hangout_requests"
}

// Hangout request status constants
const (
	HangoutStatusPending  = "pending"
	HangoutStatusAccepted = "accepted"
	HangoutStatusDeclined = "declined"
	HangoutStatusExpired  = "expired"
)

// IsExpired reports whether a pending request has passed its expiry.
func (r *HangoutRequest) IsExpired(now time.Time) bool {
	return r.Status == HangoutStatusPending && r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// HangoutDetails carries the user-supplied fields of a hangout proposal.
type HangoutDetails struct {
	Idea      string `json:"idea"`
	EventType string `json:"event_type"`
	Time      string `json:"time"`
	Place     string `json:"place"`
}
