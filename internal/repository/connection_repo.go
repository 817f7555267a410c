package repository

import (
	"encoding/json"
	"time"

	"hangoutapp/internal/model"
	"hangoutapp/internal/util"

	"gorm.io/gorm"
)

type ConnectionRepository interface {
	Create(connection *model.Connection) error
	FindByPair(a, b string) (*model.Connection, error)
	ConnectionsOf(uid string) ([]string, error)
	FindAll() ([]*model.Connection, error)
	DeleteByPair(a, b string) error
}

type connectionRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	connectionsOfCachePrefix  = "connections:of:"
	connectionCacheExpiration = 15 * time.Minute
)

func NewConnectionRepository(db *gorm.DB, redis *util.RedisClient) ConnectionRepository {
	return &connectionRepository{
		db:    db,
		redis: redis,
	}
}

// Create stores a connection edge. The canonical pair id makes a second insert
// for the same unordered pair fail on the primary key.
func (r *connectionRepository) Create(connection *model.Connection) error {
	if err := r.db.Create(connection).Error; err != nil {
		return err
	}

	// Invalidate cache
	if r.redis != nil {
		r.invalidateUserCache(connection.UserA)
		r.invalidateUserCache(connection.UserB)
	}

	return nil
}

// FindByPair finds the connection between two users, in either order.
func (r *connectionRepository) FindByPair(a, b string) (*model.Connection, error) {
	var connection model.Connection
	err := r.db.Where("pair_id = ?", model.ConnectionPairID(a, b)).First(&connection).Error
	if err != nil {
		return nil, err
	}
	return &connection, nil
}

// ConnectionsOf returns the ids of every user directly connected to uid.
func (r *connectionRepository) ConnectionsOf(uid string) ([]string, error) {
	// Try cache first
	if r.redis != nil {
		cached, err := r.getPeersFromCache(connectionsOfCachePrefix + uid)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var connections []*model.Connection
	err := r.db.Where("user_a = ? OR user_b = ?", uid, uid).Find(&connections).Error
	if err != nil {
		return nil, err
	}

	peers := make([]string, 0, len(connections))
	for _, conn := range connections {
		if other := conn.Other(uid); other != "" {
			peers = append(peers, other)
		}
	}

	// Cache the result
	if r.redis != nil {
		r.cachePeers(connectionsOfCachePrefix+uid, peers)
	}

	return peers, nil
}

// FindAll returns every stored connection. Acceptable at neighborhood scale;
// the graph assembler filters the result down to the discovered node set.
func (r *connectionRepository) FindAll() ([]*model.Connection, error) {
	var connections []*model.Connection
	err := r.db.Find(&connections).Error
	if err != nil {
		return nil, err
	}
	return connections, nil
}

// DeleteByPair removes the edge between two users (unfriending). The edge is
// undirected so argument order does not matter.
func (r *connectionRepository) DeleteByPair(a, b string) error {
	result := r.db.Where("pair_id = ?", model.ConnectionPairID(a, b)).Delete(&model.Connection{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	// Invalidate cache
	if r.redis != nil {
		r.invalidateUserCache(a)
		r.invalidateUserCache(b)
	}

	return nil
}

// Cache helpers
func (r *connectionRepository) cachePeers(key string, peers []string) {
	if r.redis == nil {
		return
	}

	peersJSON, err := json.Marshal(peers)
	if err != nil {
		return
	}

	r.redis.Set(key, string(peersJSON), connectionCacheExpiration)
}

func (r *connectionRepository) getPeersFromCache(key string) ([]string, error) {
	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var peers []string
	if err := json.Unmarshal([]byte(cached), &peers); err != nil {
		return nil, err
	}

	return peers, nil
}

func (r *connectionRepository) invalidateUserCache(uid string) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(connectionsOfCachePrefix + uid)
}
