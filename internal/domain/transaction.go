/**
 * @description
 * This file defines the core domain models for the ledger-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Using distinct types for API requests, database models, and queue payloads
 *   ensures clear separation of concerns and type safety.
 * - Amounts are stored as `int64` to represent the value in the smallest currency
 *   unit (cents), which avoids floating-point inaccuracies with financial data.
 * - Business rejections (insufficient funds, unknown account, ...) are reported
 *   through TransactionResult rather than Go errors; errors are reserved for
 *   storage and infrastructure faults.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction type values recorded in the ledger.
const (
	TypeTransfer   = "TRANSFER"
	TypeDeposit    = "DEPOSIT"
	TypeWithdrawal = "WITHDRAWAL"
)

// Transaction status values. Only committed records exist in the ledger, so
// every persisted row carries StatusCompleted; the constant is kept explicit
// so the wire format stays stable.
const (
	StatusCompleted = "COMPLETED"
)

// FailureReason identifies why a transaction request was rejected by a
// business rule. A zero value means the request was not rejected.
type FailureReason string

const (
	ReasonSelfTransfer      FailureReason = "SELF_TRANSFER"
	ReasonInvalidAmount     FailureReason = "INVALID_AMOUNT"
	ReasonAccountNotFound   FailureReason = "ACCOUNT_NOT_FOUND"
	ReasonInsufficientFunds FailureReason = "INSUFFICIENT_FUNDS"
)

// Transaction represents one immutable ledger record. This struct maps
// directly to the `transactions` table in the database.
type Transaction struct {
	ID          int64      `json:"id"`
	SenderID    uuid.UUID  `json:"sender_id"`
	RecipientID *uuid.UUID `json:"recipient_id,omitempty"`
	Amount      int64      `json:"amount"` // in cents
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TransactionResult is the structured outcome of a transfer or M-Pesa
// simulation. Success=false with a Reason describes a business rejection;
// callers must inspect Success rather than rely on an error value.
type TransactionResult struct {
	Success       bool          `json:"success"`
	TransactionID int64         `json:"transaction_id,omitempty"`
	Reason        FailureReason `json:"reason,omitempty"`
	Message       string        `json:"message"`
}

// TransferRequest is the DTO for incoming peer-to-peer transfer API requests.
type TransferRequest struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Amount      int64     `json:"amount"` // in cents
	Description string    `json:"description"`
}

// MpesaRequest is the DTO for incoming simulated M-Pesa API requests.
// Type must be DEPOSIT or WITHDRAWAL.
type MpesaRequest struct {
	Type        string `json:"type"`
	Amount      int64  `json:"amount"` // in cents
	PhoneNumber string `json:"phone_number"`
}

// HistoryPage is one page of an account's transaction history, newest first.
type HistoryPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
	TotalCount   int64         `json:"total_count"`
	TotalPages   int           `json:"total_pages"`
}

// LedgerSummary aggregates ledger totals for the periodic audit job.
type LedgerSummary struct {
	AccountCount     int64
	TransactionCount int64
	TotalBalance     int64 // in cents
	NegativeBalances int64
}
