package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadReceiptInvokesHandler(t *testing.T) {
	hub := NewHub()

	var gotUser, gotNotification string
	hub.SetReadReceiptHandler(func(userID, notificationID string) {
		gotUser = userID
		gotNotification = notificationID
	})

	hub.handleReadReceipt("alice", "notif-1")

	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "notif-1", gotNotification)
}

func TestReadReceiptWithoutHandler(t *testing.T) {
	hub := NewHub()

	assert.NotPanics(t, func() {
		hub.handleReadReceipt("alice", "notif-1")
	})
}
