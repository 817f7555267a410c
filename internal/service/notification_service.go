package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"hangoutapp/internal/model"
	"hangoutapp/internal/repository"
	"hangoutapp/internal/util"
)

type NotificationService interface {
	SendConnectionRequestNotification(receiverID, senderID, senderName, requestID string) error
	SendConnectionAcceptedNotification(receiverID, senderID, senderName string) error
	SendHangoutRequestNotification(receiverID, senderID, senderName, requestID string) error
	SendHangoutDecisionNotification(receiverID, senderID, senderName, status string) error
	SendApprovalRequestedNotification(mutualID, senderID, senderName, approvalID string) error
	SendApprovalDecidedNotification(receiverID, mutualID, mutualName, decision string) error
	SendOTPIssuedNotification(userID, phone, code string) error
	GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error)
	GetUnreadNotifications(userID string) ([]*model.Notification, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) error
	DeleteNotification(notificationID, userID string) error
	SetWSHub(hub interface {
		BroadcastToUser(string, map[string]interface{})
	})
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	rabbitMQ  *util.RabbitMQClient
	wsHub     interface {
		BroadcastToUser(string, map[string]interface{})
	}
}

// NotificationMessage represents the message structure for RabbitMQ
type NotificationMessage struct {
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// OTP codes ride the same exchange as app notifications but bind their own
// queue, so the push worker never sees them and the SMS gateway consumes them
// exclusively.
const (
	NotificationQueueName = "notification_queue"
	NotificationExchange  = "notification_exchange"
	NotificationRouteKey  = "notification"
	OTPQueueName          = "otp_delivery_queue"
	OTPRouteKey           = "otp"
)

func NewNotificationService(notifRepo repository.NotificationRepository, rabbitMQ *util.RabbitMQClient) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		rabbitMQ:  rabbitMQ,
		wsHub:     nil, // Will be set via SetWSHub
	}
}

// SetWSHub sets the WebSocket hub for realtime notifications
func (s *notificationService) SetWSHub(hub interface {
	BroadcastToUser(string, map[string]interface{})
}) {
	s.wsHub = hub
}

// sendNotification saves the notification and hands it to RabbitMQ for async
// delivery; realtime push happens in the worker consuming the queue.
func (s *notificationService) sendNotification(
	userID, notifType, title, message string,
	data map[string]interface{},
) error {
	notification := &model.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		IsRead:  false,
	}

	if data != nil {
		if senderID, ok := data["sender_id"].(string); ok {
			notification.SenderID = &senderID
		}
		if targetID, ok := data["target_id"].(string); ok {
			notification.TargetID = &targetID
		}

		dataJSON, err := json.Marshal(data)
		if err == nil {
			notification.Data = string(dataJSON)
		}
	}

	if err := s.notifRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.rabbitMQ != nil {
		msg := NotificationMessage{
			UserID:    userID,
			Type:      notifType,
			Title:     title,
			Message:   message,
			Data:      data,
			Timestamp: time.Now(),
		}

		msgJSON, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to marshal notification message: %v", err)
			return err
		}

		if err := s.rabbitMQ.Publish(NotificationExchange, NotificationRouteKey, msgJSON); err != nil {
			log.Printf("Failed to publish notification to RabbitMQ: %v", err)
			// Don't return error, notification is already saved in DB
		}
		return nil
	}

	// No broker: push straight to WebSocket so realtime delivery still happens
	if s.wsHub != nil {
		wsPayload := map[string]interface{}{
			"id":         notification.ID,
			"user_id":    notification.UserID,
			"type":       notification.Type,
			"title":      notification.Title,
			"message":    notification.Message,
			"target_id":  notification.TargetID,
			"is_read":    notification.IsRead,
			"created_at": notification.CreatedAt.Format(time.RFC3339),
		}
		if notification.SenderID != nil {
			wsPayload["sender_id"] = *notification.SenderID
		}
		if data != nil {
			wsPayload["data"] = data
		}
		s.wsHub.BroadcastToUser(userID, wsPayload)
	}

	return nil
}

// SendConnectionRequestNotification tells a user someone wants to connect
func (s *notificationService) SendConnectionRequestNotification(
	receiverID, senderID, senderName, requestID string,
) error {
	title := "New Connection Request"
	message := fmt.Sprintf("%s wants to connect with you", senderName)
	data := map[string]interface{}{
		"target_id":   requestID,
		"sender_id":   senderID,
		"sender_name": senderName,
	}

	return s.sendNotification(receiverID, model.NotificationTypeConnectionRequest, title, message, data)
}

// SendConnectionAcceptedNotification tells the sender their request was accepted
func (s *notificationService) SendConnectionAcceptedNotification(
	receiverID, senderID, senderName string,
) error {
	title := "Connection Accepted"
	message := fmt.Sprintf("%s accepted your connection request", senderName)
	data := map[string]interface{}{
		"sender_id":   senderID,
		"sender_name": senderName,
	}

	return s.sendNotification(receiverID, model.NotificationTypeConnectionAccepted, title, message, data)
}

// SendHangoutRequestNotification tells a user they have a new hangout request
func (s *notificationService) SendHangoutRequestNotification(
	receiverID, senderID, senderName, requestID string,
) error {
	title := "New Hangout Request"
	message := fmt.Sprintf("%s wants to hang out with you", senderName)
	data := map[string]interface{}{
		"target_id":   requestID,
		"sender_id":   senderID,
		"sender_name": senderName,
	}

	return s.sendNotification(receiverID, model.NotificationTypeHangoutRequest, title, message, data)
}

// SendHangoutDecisionNotification tells the sender their hangout request was
// accepted or declined
func (s *notificationService) SendHangoutDecisionNotification(
	receiverID, senderID, senderName, status string,
) error {
	notifType := model.NotificationTypeHangoutAccepted
	title := "Hangout Accepted"
	message := fmt.Sprintf("%s accepted your hangout request", senderName)
	if status == model.HangoutStatusDeclined {
		notifType = model.NotificationTypeHangoutDeclined
		title = "Hangout Declined"
		message = fmt.Sprintf("%s declined your hangout request", senderName)
	}
	data := map[string]interface{}{
		"sender_id":   senderID,
		"sender_name": senderName,
		"status":      status,
	}

	return s.sendNotification(receiverID, notifType, title, message, data)
}

// SendApprovalRequestedNotification asks a mutual friend to approve a
// second-degree hangout request
func (s *notificationService) SendApprovalRequestedNotification(
	mutualID, senderID, senderName, approvalID string,
) error {
	title := "Introduction Requested"
	message := fmt.Sprintf("%s wants you to approve a hangout with one of your connections", senderName)
	data := map[string]interface{}{
		"target_id":   approvalID,
		"sender_id":   senderID,
		"sender_name": senderName,
	}

	return s.sendNotification(mutualID, model.NotificationTypeApprovalRequested, title, message, data)
}

// SendApprovalDecidedNotification tells the requester what the mutual friend
// decided
func (s *notificationService) SendApprovalDecidedNotification(
	receiverID, mutualID, mutualName, decision string,
) error {
	title := "Approval Decided"
	message := fmt.Sprintf("%s %s your hangout request", mutualName, decision)
	data := map[string]interface{}{
		"sender_id":   mutualID,
		"sender_name": mutualName,
		"decision":    decision,
	}

	return s.sendNotification(receiverID, model.NotificationTypeApprovalDecided, title, message, data)
}

// SendOTPIssuedNotification hands a login code to the OTP delivery queue.
// Actual SMS delivery is the gateway consumer's job; the engine only
// publishes.
func (s *notificationService) SendOTPIssuedNotification(userID, phone, code string) error {
	if s.rabbitMQ == nil {
		log.Printf("OTP for %s issued without broker; delivery skipped", phone)
		return nil
	}

	msg := NotificationMessage{
		UserID:  userID,
		Type:    model.NotificationTypeOTPIssued,
		Title:   "Your login code",
		Message: fmt.Sprintf("Your login code is %s", code),
		Data: map[string]interface{}{
			"phone": phone,
		},
		Timestamp: time.Now(),
	}

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.rabbitMQ.Publish(NotificationExchange, OTPRouteKey, msgJSON)
}

// GetNotificationsByUserID gets notifications for a user with pagination
func (s *notificationService) GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	return s.notifRepo.FindByUserID(userID, limit, offset)
}

// GetUnreadNotifications gets unread notifications for a user
func (s *notificationService) GetUnreadNotifications(userID string) ([]*model.Notification, error) {
	return s.notifRepo.FindUnreadByUserID(userID)
}

// GetUnreadCount gets unread notification count for a user
func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notifRepo.CountUnreadByUserID(userID)
}

// MarkAsRead marks a notification as read
func (s *notificationService) MarkAsRead(notificationID, userID string) error {
	// Verify notification belongs to user
	notification, err := s.notifRepo.FindByID(notificationID)
	if err != nil {
		return errors.New("notification not found")
	}

	if notification.UserID != userID {
		return errors.New("unauthorized: you can only mark your own notifications as read")
	}

	return s.notifRepo.MarkAsRead(notificationID)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notifRepo.MarkAllAsRead(userID)
}

// DeleteNotification deletes a notification
func (s *notificationService) DeleteNotification(notificationID, userID string) error {
	// Verify notification belongs to user
	notification, err := s.notifRepo.FindByID(notificationID)
	if err != nil {
		return errors.New("notification not found")
	}

	if notification.UserID != userID {
		return errors.New("unauthorized: you can only delete your own notifications")
	}

	return s.notifRepo.Delete(notificationID)
}
