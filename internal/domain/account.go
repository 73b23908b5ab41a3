/**
 * @description
 * Account model and related DTOs for the ledger-service. An account couples
 * a user identity (credentials, phone number) with a single custodial
 * balance; the service never tracks more than one balance per user.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a user and their custodial wallet balance.
// The balance is maintained by the store under an invariant that it never
// goes below zero.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhoneNumber  string    `json:"phone_number"`
	Balance      int64     `json:"balance"` // in cents
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the DTO for account registration.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// LoginRequest is the DTO for credential authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BalanceResponse is the API view of an account's current balance.
type BalanceResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance   int64     `json:"balance"` // in cents
}
