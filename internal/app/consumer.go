/**
 * @description
 * Consumer side of the notification queue. The ledger publishes a
 * TransactionEvent after every committed transaction; this handler drains the
 * queue and logs each notification. Malformed payloads are acknowledged and
 * dropped so they cannot wedge the queue.
 */

package app

import (
	"encoding/json"
	"log"
)

// NotificationConsumer processes transaction events from the queue.
type NotificationConsumer struct{}

// NewNotificationConsumer creates a new consumer.
func NewNotificationConsumer() *NotificationConsumer {
	return &NotificationConsumer{}
}

// HandleMessage processes one delivery. Returning true acks the message;
// returning false requests a nack without requeue.
func (c *NotificationConsumer) HandleMessage(body []byte) bool {
	var event struct {
		Type          string `json:"type"`
		TransactionID int64  `json:"transaction_id"`
		Amount        int64  `json:"amount"`
		PhoneNumber   string `json:"phone_number"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("notification-consumer: failed to unmarshal payload: %v", err)
		return true
	}
	if event.TransactionID == 0 {
		log.Printf("notification-consumer: missing transaction id in payload %s", string(body))
		return true
	}

	log.Printf("notification-consumer: received %s notification for transaction %d (amount %d)",
		event.Type, event.TransactionID, event.Amount)
	return true
}
