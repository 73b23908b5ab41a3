package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AllanKariuki/ledger-service/internal/domain"
	"github.com/AllanKariuki/ledger-service/internal/store"
)

// memLedger is an in-memory store.Repository and store.TxManager used by the
// app tests. WithTransaction snapshots all state and restores it when the
// callback fails, matching the rollback behavior of the real store.
type memLedger struct {
	txMu sync.Mutex // serializes transactions
	mu   sync.Mutex // guards state

	accounts     map[uuid.UUID]*domain.Account
	transactions []domain.Transaction
	nextID       int64
}

func newMemLedger() *memLedger {
	return &memLedger{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (m *memLedger) seedAccount(balance int64) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.accounts[id] = &domain.Account{
		ID:      id,
		Balance: balance,
	}
	return m.accounts[id].ID
}

func (m *memLedger) snapshot() (map[uuid.UUID]*domain.Account, []domain.Transaction, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accounts := make(map[uuid.UUID]*domain.Account, len(m.accounts))
	for id, acc := range m.accounts {
		copied := *acc
		accounts[id] = &copied
	}
	transactions := append([]domain.Transaction(nil), m.transactions...)
	return accounts, transactions, m.nextID
}

func (m *memLedger) restore(accounts map[uuid.UUID]*domain.Account, transactions []domain.Transaction, nextID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = accounts
	m.transactions = transactions
	m.nextID = nextID
}

func (m *memLedger) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	accounts, transactions, nextID := m.snapshot()
	if err := fn(ctx); err != nil {
		m.restore(accounts, transactions, nextID)
		return err
	}
	return nil
}

func (m *memLedger) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Email, account.Email) || existing.Username == account.Username {
			return nil, store.ErrDuplicateAccount
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	stored := *account
	stored.Balance = 0
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.accounts[stored.ID] = &stored
	result := stored
	return &result, nil
}

func (m *memLedger) FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	copied := *acc
	return &copied, nil
}

func (m *memLedger) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if strings.EqualFold(acc.Email, email) {
			copied := *acc
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (m *memLedger) AccountExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[accountID]
	return ok, nil
}

func (m *memLedger) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return 0, store.ErrAccountNotFound
	}
	return acc.Balance, nil
}

func (m *memLedger) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return 0, store.ErrAccountNotFound
	}
	if acc.Balance+delta < 0 {
		return 0, store.ErrInsufficientFunds
	}
	acc.Balance += delta
	return acc.Balance, nil
}

func (m *memLedger) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tx.ID = m.nextID
	tx.CreatedAt = time.Now()
	m.transactions = append(m.transactions, *tx)
	return nil
}

func (m *memLedger) FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]domain.Transaction, 0)
	for _, tx := range m.transactions {
		if tx.SenderID == accountID || (tx.RecipientID != nil && *tx.RecipientID == accountID) {
			matched = append(matched, tx)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if offset >= len(matched) {
		return []domain.Transaction{}, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memLedger) CountTransactionsByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, tx := range m.transactions {
		if tx.SenderID == accountID || (tx.RecipientID != nil && *tx.RecipientID == accountID) {
			count++
		}
	}
	return count, nil
}

func (m *memLedger) SummarizeLedger(ctx context.Context) (*domain.LedgerSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := &domain.LedgerSummary{
		AccountCount:     int64(len(m.accounts)),
		TransactionCount: int64(len(m.transactions)),
	}
	for _, acc := range m.accounts {
		summary.TotalBalance += acc.Balance
		if acc.Balance < 0 {
			summary.NegativeBalances++
		}
	}
	return summary, nil
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.TransactionEvent
	err    error
}

func (n *recordingNotifier) PublishTransactionEvent(ctx context.Context, event domain.TransactionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) published() []domain.TransactionEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.TransactionEvent(nil), n.events...)
}
