/**
 * @description
 * This file contains the core business logic for the ledger-service. The `Service`
 * struct orchestrates all money movement operations, coordinating between the database
 * repository, the transaction manager, and the message broker.
 *
 * Key features:
 * - Implements the main use cases: P2P transfers and simulated M-Pesa deposits/withdrawals.
 * - Ensures transactional integrity: balance changes and the ledger record for a
 *   transaction commit together or not at all.
 * - Reports business rejections through domain.TransactionResult; Go errors are
 *   reserved for storage and infrastructure faults.
 * - Publishes events to RabbitMQ after commit on a best-effort basis.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For account identifiers.
 * - internal/domain, internal/store: For domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/AllanKariuki/ledger-service/internal/domain"
	"github.com/AllanKariuki/ledger-service/internal/store"
)

const (
	DefaultHistoryPage  = 1
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// ErrUnsupportedType is returned when an M-Pesa simulation names a type other
// than DEPOSIT or WITHDRAWAL.
var ErrUnsupportedType = errors.New("unsupported m-pesa transaction type")

// errRejected aborts the enclosing database transaction after a business rule
// rejection. It never escapes the service; callers see a TransactionResult.
var errRejected = errors.New("transaction rejected")

// Notifier publishes transaction events to the notification queue.
type Notifier interface {
	PublishTransactionEvent(ctx context.Context, event domain.TransactionEvent) error
}

// Service provides the core business logic for the ledger.
type Service struct {
	repo     store.Repository
	txm      store.TxManager
	notifier Notifier
}

// NewService creates a new ledger service instance.
func NewService(repo store.Repository, txm store.TxManager, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		txm:      txm,
		notifier: notifier,
	}
}

func rejected(reason domain.FailureReason, message string) *domain.TransactionResult {
	return &domain.TransactionResult{Success: false, Reason: reason, Message: message}
}

// Transfer moves funds between two accounts. Validation runs in a fixed
// order: self transfer, amount, account existence, then sufficiency. The
// debit, credit, and ledger record commit atomically; the notification event
// is published only after the commit and its failure does not affect the
// result.
func (s *Service) Transfer(ctx context.Context, senderID uuid.UUID, req domain.TransferRequest) (*domain.TransactionResult, error) {
	log.Printf("Transfer: sender=%s recipient=%s amount=%d", senderID, req.RecipientID, req.Amount)

	if senderID == req.RecipientID {
		return rejected(domain.ReasonSelfTransfer, "Cannot transfer funds to the same account"), nil
	}
	if req.Amount <= 0 {
		return rejected(domain.ReasonInvalidAmount, "Amount must be greater than zero"), nil
	}

	var result *domain.TransactionResult
	tx := &domain.Transaction{
		SenderID:    senderID,
		RecipientID: &req.RecipientID,
		Amount:      req.Amount,
		Type:        domain.TypeTransfer,
		Status:      domain.StatusCompleted,
		Description: req.Description,
	}

	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		// Existence checks run before the debit so a missing counterparty is
		// reported ahead of an insufficient balance.
		exists, err := s.repo.AccountExists(ctx, senderID)
		if err != nil {
			return fmt.Errorf("check sender account: %w", err)
		}
		if !exists {
			result = rejected(domain.ReasonAccountNotFound, "Sender account not found")
			return errRejected
		}
		exists, err = s.repo.AccountExists(ctx, req.RecipientID)
		if err != nil {
			return fmt.Errorf("check recipient account: %w", err)
		}
		if !exists {
			result = rejected(domain.ReasonAccountNotFound, "Recipient account not found")
			return errRejected
		}

		if _, err := s.repo.AdjustBalance(ctx, senderID, -req.Amount); err != nil {
			switch {
			case errors.Is(err, store.ErrInsufficientFunds):
				result = rejected(domain.ReasonInsufficientFunds, "Insufficient funds")
				return errRejected
			case errors.Is(err, store.ErrAccountNotFound):
				result = rejected(domain.ReasonAccountNotFound, "Sender account not found")
				return errRejected
			default:
				return fmt.Errorf("debit sender: %w", err)
			}
		}
		if _, err := s.repo.AdjustBalance(ctx, req.RecipientID, req.Amount); err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				result = rejected(domain.ReasonAccountNotFound, "Recipient account not found")
				return errRejected
			}
			return fmt.Errorf("credit recipient: %w", err)
		}

		if err := s.repo.AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errRejected) {
			log.Printf("Transfer: rejected sender=%s reason=%s", senderID, result.Reason)
			return result, nil
		}
		return nil, err
	}

	log.Printf("Transfer: completed id=%d sender=%s recipient=%s amount=%d", tx.ID, senderID, req.RecipientID, req.Amount)

	s.publishEvent(ctx, domain.TransactionEvent{
		Type:          domain.TypeTransfer,
		TransactionID: tx.ID,
		SenderID:      &senderID,
		RecipientID:   &req.RecipientID,
		Amount:        req.Amount,
		OccurredAt:    time.Now().UTC(),
	})

	return &domain.TransactionResult{
		Success:       true,
		TransactionID: tx.ID,
		Message:       "Transfer completed successfully",
	}, nil
}

// SimulateMpesa credits or debits an account as if an M-Pesa deposit or
// withdrawal had settled. No external provider is contacted; the ledger
// record carries a description naming the phone number instead.
func (s *Service) SimulateMpesa(ctx context.Context, accountID uuid.UUID, req domain.MpesaRequest) (*domain.TransactionResult, error) {
	log.Printf("SimulateMpesa: account=%s type=%s amount=%d", accountID, req.Type, req.Amount)

	if req.Type != domain.TypeDeposit && req.Type != domain.TypeWithdrawal {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, req.Type)
	}
	if req.Amount <= 0 {
		return rejected(domain.ReasonInvalidAmount, "Amount must be greater than zero"), nil
	}

	delta := req.Amount
	if req.Type == domain.TypeWithdrawal {
		delta = -req.Amount
	}

	var result *domain.TransactionResult
	tx := &domain.Transaction{
		SenderID:    accountID,
		Amount:      req.Amount,
		Type:        req.Type,
		Status:      domain.StatusCompleted,
		Description: fmt.Sprintf("M-Pesa %s via %s", req.Type, req.PhoneNumber),
	}

	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.AdjustBalance(ctx, accountID, delta); err != nil {
			switch {
			case errors.Is(err, store.ErrAccountNotFound):
				result = rejected(domain.ReasonAccountNotFound, "Account not found")
				return errRejected
			case errors.Is(err, store.ErrInsufficientFunds):
				result = rejected(domain.ReasonInsufficientFunds, "Insufficient funds")
				return errRejected
			default:
				return fmt.Errorf("adjust balance: %w", err)
			}
		}
		if err := s.repo.AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errRejected) {
			log.Printf("SimulateMpesa: rejected account=%s reason=%s", accountID, result.Reason)
			return result, nil
		}
		return nil, err
	}

	log.Printf("SimulateMpesa: completed id=%d account=%s type=%s amount=%d", tx.ID, accountID, req.Type, req.Amount)

	s.publishEvent(ctx, domain.TransactionEvent{
		Type:          "MPESA_" + req.Type,
		TransactionID: tx.ID,
		AccountID:     &accountID,
		PhoneNumber:   req.PhoneNumber,
		Amount:        req.Amount,
		OccurredAt:    time.Now().UTC(),
	})

	return &domain.TransactionResult{
		Success:       true,
		TransactionID: tx.ID,
		Message:       fmt.Sprintf("M-Pesa %s completed successfully", req.Type),
	}, nil
}

// GetBalance returns the current balance of an account.
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, accountID)
}

// GetAccount returns the account record for the given ID.
func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.repo.FindAccountByID(ctx, accountID)
}

// GetHistory returns one page of the account's transaction history, newest
// first. Page and limit fall back to defaults when out of range.
func (s *Service) GetHistory(ctx context.Context, accountID uuid.UUID, page, limit int) (*domain.HistoryPage, error) {
	if page < 1 {
		page = DefaultHistoryPage
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	exists, err := s.repo.AccountExists(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return nil, store.ErrAccountNotFound
	}

	offset := (page - 1) * limit
	transactions, err := s.repo.FindTransactionsByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	count, err := s.repo.CountTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	totalPages := int((count + int64(limit) - 1) / int64(limit))
	return &domain.HistoryPage{
		Transactions: transactions,
		Page:         page,
		Limit:        limit,
		TotalCount:   count,
		TotalPages:   totalPages,
	}, nil
}

// publishEvent sends a transaction event to the notification queue. Delivery
// is best effort: the transaction has already committed, so a broker failure
// is logged and otherwise ignored.
func (s *Service) publishEvent(ctx context.Context, event domain.TransactionEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishTransactionEvent(ctx, event); err != nil {
		log.Printf("WARN: failed to publish %s event for transaction %d: %v", event.Type, event.TransactionID, err)
	}
}
