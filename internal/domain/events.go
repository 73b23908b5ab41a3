package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionEvent is the message published to the notification queue after a
// transaction commits. Delivery is best effort; the ledger record is the
// source of truth, not this event.
type TransactionEvent struct {
	Type          string     `json:"type"`
	TransactionID int64      `json:"transaction_id"`
	SenderID      *uuid.UUID `json:"sender_id,omitempty"`
	RecipientID   *uuid.UUID `json:"recipient_id,omitempty"`
	AccountID     *uuid.UUID `json:"account_id,omitempty"`
	PhoneNumber   string     `json:"phone_number,omitempty"`
	Amount        int64      `json:"amount"` // in cents
	OccurredAt    time.Time  `json:"occurred_at"`
}
