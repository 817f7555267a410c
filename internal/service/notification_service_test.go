package service

import (
	"sync"
	"testing"

	"hangoutapp/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotificationRepo struct {
	mu    sync.Mutex
	rows  map[string]*model.Notification
	order []string
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: make(map[string]*model.Notification)}
}

func (f *fakeNotificationRepo) Create(notification *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	f.rows[notification.ID] = notification
	f.order = append(f.order, notification.ID)
	return nil
}

func (f *fakeNotificationRepo) FindByID(id string) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeNotificationRepo) FindByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []*model.Notification
	for _, id := range f.order {
		if f.rows[id].UserID == userID {
			rows = append(rows, f.rows[id])
		}
	}
	return rows, nil
}

func (f *fakeNotificationRepo) FindUnreadByUserID(userID string) ([]*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []*model.Notification
	for _, id := range f.order {
		if f.rows[id].UserID == userID && !f.rows[id].IsRead {
			rows = append(rows, f.rows[id])
		}
	}
	return rows, nil
}

func (f *fakeNotificationRepo) CountUnreadByUserID(userID string) (int64, error) {
	rows, _ := f.FindUnreadByUserID(userID)
	return int64(len(rows)), nil
}

func (f *fakeNotificationRepo) MarkAsRead(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.IsRead = true
	return nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == userID {
			row.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeWSHub records per-user pushes so tests can watch the broker-less
// delivery path.
type fakeWSHub struct {
	mu     sync.Mutex
	pushes map[string][]map[string]interface{}
}

func newFakeWSHub() *fakeWSHub {
	return &fakeWSHub{pushes: make(map[string][]map[string]interface{})}
}

func (f *fakeWSHub) BroadcastToUser(userID string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes[userID] = append(f.pushes[userID], payload)
}

func (f *fakeWSHub) pushesFor(userID string) []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes[userID]
}

func TestSendNotificationWithoutBrokerPushesDirectly(t *testing.T) {
	repo := newFakeNotificationRepo()
	hub := newFakeWSHub()
	svc := NewNotificationService(repo, nil)
	svc.SetWSHub(hub)

	require.NoError(t, svc.SendHangoutRequestNotification("bob", "alice", "Alice", "req-1"))

	rows, err := repo.FindUnreadByUserID("bob")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotificationTypeHangoutRequest, rows[0].Type)

	pushes := hub.pushesFor("bob")
	require.Len(t, pushes, 1)
	assert.Equal(t, model.NotificationTypeHangoutRequest, pushes[0]["type"])
}

func TestOTPIssuedNeverReachesClientsOrInbox(t *testing.T) {
	repo := newFakeNotificationRepo()
	hub := newFakeWSHub()
	svc := NewNotificationService(repo, nil)
	svc.SetWSHub(hub)

	require.NoError(t, svc.SendOTPIssuedNotification("alice", "+15550100", "123456"))

	// No inbox row and no realtime push: login codes only ever travel the
	// delivery queue.
	count, err := repo.CountUnreadByUserID("alice")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, hub.pushesFor("alice"))
}

func TestOTPRoutingIsSeparateFromNotifications(t *testing.T) {
	assert.NotEqual(t, NotificationRouteKey, OTPRouteKey)
	assert.NotEqual(t, NotificationQueueName, OTPQueueName)
}

func TestMarkAsReadChecksOwnership(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, nil)

	require.NoError(t, svc.SendConnectionAcceptedNotification("bob", "alice", "Alice"))
	rows, err := repo.FindUnreadByUserID("bob")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Error(t, svc.MarkAsRead(rows[0].ID, "mallory"))
	require.NoError(t, svc.MarkAsRead(rows[0].ID, "bob"))

	count, err := repo.CountUnreadByUserID("bob")
	require.NoError(t, err)
	assert.Zero(t, count)
}
