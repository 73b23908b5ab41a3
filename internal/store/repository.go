/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the ledger-service. By defining an interface,
 * we decouple the application's business logic from the specific database implementation
 * (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/AllanKariuki/ledger-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Account methods
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	AccountExists(ctx context.Context, accountID uuid.UUID) (bool, error)
	GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error)
	// AdjustBalance applies a signed delta to an account's balance in a single
	// conditional statement. It returns ErrInsufficientFunds when the delta
	// would take the balance below zero and ErrAccountNotFound when the
	// account row does not exist. The returned value is the new balance.
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64) (int64, error)

	// Ledger methods
	AppendTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, error)
	CountTransactionsByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// Audit methods
	SummarizeLedger(ctx context.Context) (*domain.LedgerSummary, error)
}

// TxManager runs a function inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise; repository calls
// made with the ctx passed to fn participate in that transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
