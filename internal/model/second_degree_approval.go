package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SecondDegreeApproval gates a hangout request between non-adjacent users on a
// mutual friend's decision. The proposed hangout details are held here until
// the broker acts; only an approved record ever spawns a degree-2
// HangoutRequest.
type SecondDegreeApproval struct {
	ID        string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FromID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_second_degree_approvals_pair;index" json:"from_id"`
	ToID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_second_degree_approvals_pair;index" json:"to_id"`
	MutualID  string    `gorm:"type:uuid;not null;index" json:"mutual_id"`
	Idea      string    `gorm:"type:text" json:"idea"`
	EventType string    `gorm:"type:varchar(100)" json:"event_type"`
	Time      string    `gorm:"type:varchar(255)" json:"time"`
	Place     string    `gorm:"type:varchar(255)" json:"place"`
	Status    string    `gorm:"type:varchar(20);default:'pending';not null" json:"status"` // pending, approved, declined
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	From   User `gorm:"foreignKey:FromID;references:ID" json:"from,omitempty"`
	To     User `gorm:"foreignKey:ToID;references:ID" json:"to,omitempty"`
	Mutual User `gorm:"foreignKey:MutualID;references:ID" json:"mutual,omitempty"`
}

// BeforeCreate hook to generate UUID
func (a *SecondDegreeApproval) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (SecondDegreeApproval) TableName() string {
	return "second_degree_approvals"
}

// Approval status constants
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusDeclined = "declined"
)

// Details returns the held hangout proposal fields.
func (a *SecondDegreeApproval) Details() HangoutDetails {
	return HangoutDetails{
		Idea:      a.Idea,
		EventType: a.EventType,
		Time:      a.Time,
		Place:     a.Place,
	}
}
