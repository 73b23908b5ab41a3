/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * holding accounts and the immutable transaction ledger.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 *
 * @notes
 * - Balance changes go through AdjustBalance, whose WHERE clause enforces the
 *   non-negative balance invariant at the database level. Concurrent transfers
 *   therefore cannot overdraw an account even without row locks taken by the
 *   application.
 * - Ledger rows are insert-only; there is no UPDATE or DELETE on transactions.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AllanKariuki/ledger-service/internal/domain"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateAccount  = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// querier is the subset of pgx operations shared by pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// conn returns the open transaction from the context when present, otherwise
// the pool. Repository methods called inside TxManager.WithTransaction share
// one database transaction this way.
func (r *PostgresRepository) conn(ctx context.Context) querier {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// CreateAccount inserts a new account with a zero starting balance and
// returns the stored row.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (id, username, email, password_hash, phone_number, balance)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id, username, email, password_hash, phone_number, balance, created_at, updated_at
	`
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	var stored domain.Account
	err := r.conn(ctx).QueryRow(ctx, query,
		account.ID, account.Username, account.Email, account.PasswordHash, account.PhoneNumber,
	).Scan(
		&stored.ID, &stored.Username, &stored.Email, &stored.PasswordHash,
		&stored.PhoneNumber, &stored.Balance, &stored.CreatedAt, &stored.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	return &stored, nil
}

// FindAccountByID retrieves an account by its primary key.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	query := `
		SELECT id, username, email, password_hash, phone_number, balance, created_at, updated_at
		FROM accounts WHERE id = $1
	`
	err := r.conn(ctx).QueryRow(ctx, query, accountID).Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&account.PhoneNumber, &account.Balance, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAccountByEmail retrieves an account by email for credential checks.
func (r *PostgresRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	query := `
		SELECT id, username, email, password_hash, phone_number, balance, created_at, updated_at
		FROM accounts WHERE lower(email) = lower($1)
	`
	err := r.conn(ctx).QueryRow(ctx, query, email).Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&account.PhoneNumber, &account.Balance, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// AccountExists reports whether an account row exists.
func (r *PostgresRepository) AccountExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetBalance returns the current balance for an account.
func (r *PostgresRepository) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var balance int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// AdjustBalance applies a signed delta in one conditional UPDATE. The guard in
// the WHERE clause is what keeps balances non-negative under concurrency: a
// debit that would overdraw matches zero rows and the account is left
// untouched. A zero-row result is disambiguated with an existence probe so
// callers can tell a missing account from an insufficient balance.
func (r *PostgresRepository) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance
	`
	var balance int64
	err := r.conn(ctx).QueryRow(ctx, query, accountID, delta).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if err != pgx.ErrNoRows {
		return 0, err
	}
	exists, probeErr := r.AccountExists(ctx, accountID)
	if probeErr != nil {
		return 0, probeErr
	}
	if !exists {
		return 0, ErrAccountNotFound
	}
	return 0, ErrInsufficientFunds
}

// AppendTransaction inserts a new ledger record and fills in the assigned ID
// and creation timestamp.
func (r *PostgresRepository) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (sender_id, recipient_id, amount, type, status, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.conn(ctx).QueryRow(ctx, query,
		tx.SenderID, tx.RecipientID, tx.Amount, tx.Type, tx.Status, tx.Description,
	).Scan(&tx.ID, &tx.CreatedAt)
}

// FindTransactionsByAccount returns one page of ledger records where the
// account is sender or recipient, newest first. The id tiebreak keeps the
// ordering stable when timestamps collide.
func (r *PostgresRepository) FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	query := `
		SELECT id, sender_id, recipient_id, amount, type, status, description, created_at
		FROM transactions
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.conn(ctx).Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.SenderID, &tx.RecipientID, &tx.Amount,
			&tx.Type, &tx.Status, &tx.Description, &tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// CountTransactionsByAccount returns the total number of ledger records
// involving the account, used to compute total pages.
func (r *PostgresRepository) CountTransactionsByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM transactions WHERE sender_id = $1 OR recipient_id = $1`
	err := r.conn(ctx).QueryRow(ctx, query, accountID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SummarizeLedger aggregates account and ledger totals for the audit job.
// negative_balances should always scan zero; a non-zero value means the
// balance invariant has been violated and is worth an alert.
func (r *PostgresRepository) SummarizeLedger(ctx context.Context) (*domain.LedgerSummary, error) {
	var summary domain.LedgerSummary
	query := `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COALESCE(SUM(balance), 0) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE balance < 0),
			(SELECT COUNT(*) FROM transactions)
	`
	err := r.conn(ctx).QueryRow(ctx, query).Scan(
		&summary.AccountCount,
		&summary.TotalBalance,
		&summary.NegativeBalances,
		&summary.TransactionCount,
	)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
