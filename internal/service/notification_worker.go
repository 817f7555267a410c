package service

import (
	"encoding/json"
	"log"

	"hangoutapp/internal/util"
	"hangoutapp/internal/websocket"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationWorker consumes notification messages from RabbitMQ and pushes
// them to connected WebSocket clients. OTP messages route to a separate queue
// on the same exchange and never reach this worker.
type NotificationWorker struct {
	rabbitMQ *util.RabbitMQClient
	wsHub    *websocket.Hub
	stopChan chan bool
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(rabbitMQ *util.RabbitMQClient, wsHub *websocket.Hub) *NotificationWorker {
	return &NotificationWorker{
		rabbitMQ: rabbitMQ,
		wsHub:    wsHub,
		stopChan: make(chan bool),
	}
}

// Start starts consuming notification messages from RabbitMQ
func (w *NotificationWorker) Start() error {
	if w.rabbitMQ == nil {
		return nil // RabbitMQ not available, worker will not start
	}

	channel := w.rabbitMQ.GetChannel()
	if channel == nil {
		return nil
	}

	if err := w.rabbitMQ.DeclareDirectExchange(
		NotificationExchange,
		NotificationQueueName,
		NotificationRouteKey,
	); err != nil {
		return err
	}

	// Declare the OTP queue too so published codes are retained until the
	// SMS gateway connects. This worker does not consume it.
	if err := w.rabbitMQ.DeclareDirectExchange(
		NotificationExchange,
		OTPQueueName,
		OTPRouteKey,
	); err != nil {
		return err
	}

	msgs, err := channel.Consume(
		NotificationQueueName,
		"notification_worker",
		false, // auto-ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		log.Println("Notification worker started, consuming messages...")
		for {
			select {
			case <-w.stopChan:
				log.Println("Notification worker stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Notification queue closed")
					return
				}
				if err := w.processNotificationMessage(msg); err != nil {
					log.Printf("Error processing notification message: %v", err)
					// Don't ack on error, let RabbitMQ requeue
					msg.Nack(false, true)
				} else {
					msg.Ack(false)
				}
			}
		}
	}()

	return nil
}

// processNotificationMessage pushes one queued notification to WebSocket
func (w *NotificationWorker) processNotificationMessage(msg amqp.Delivery) error {
	var notificationMsg NotificationMessage
	if err := json.Unmarshal(msg.Body, &notificationMsg); err != nil {
		return err
	}

	if w.wsHub != nil {
		payload := map[string]interface{}{
			"type":    notificationMsg.Type,
			"user_id": notificationMsg.UserID,
			"title":   notificationMsg.Title,
			"message": notificationMsg.Message,
		}
		if notificationMsg.Data != nil {
			payload["data"] = notificationMsg.Data
		}
		w.wsHub.BroadcastToUser(notificationMsg.UserID, payload)
		log.Printf("Notification pushed to WebSocket for user: %s, type: %s", notificationMsg.UserID, notificationMsg.Type)
	}

	return nil
}

// Stop stops the notification worker
func (w *NotificationWorker) Stop() {
	close(w.stopChan)
}
