package model

import (
	"sort"
	"strings"
	"time"
)

// Connection is an undirected edge between two users. Exactly one row exists
// per unordered pair; PairID is the canonical sorted key.
type Connection struct {
	PairID    string    `gorm:"type:varchar(100);primary_key" json:"pair_id"`
	UserA     string    `gorm:"type:uuid;not null;index" json:"user_a"`
	UserB     string    `gorm:"type:uuid;not null;index" json:"user_b"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Connection) TableName() string {
	return "connections"
}

// ConnectionPairID returns the canonical id for an unordered user pair.
func ConnectionPairID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}

// NewConnection builds a canonical connection for the given pair, with
// UserA/UserB stored in sorted order.
func NewConnection(a, b string) *Connection {
	pair := []string{a, b}
	sort.Strings(pair)
	return &Connection{
		PairID: strings.Join(pair, "_"),
		UserA:  pair[0],
		UserB:  pair[1],
	}
}

// Other returns the participant that is not uid, or "" if uid is not part of
// the connection.
func (c *Connection) Other(uid string) string {
	switch uid {
	case c.UserA:
		return c.UserB
	case c.UserB:
		return c.UserA
	default:
		return ""
	}
}
