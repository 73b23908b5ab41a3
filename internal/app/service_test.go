package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/AllanKariuki/ledger-service/internal/domain"
	"github.com/AllanKariuki/ledger-service/internal/store"
)

func newTestService() (*Service, *memLedger, *recordingNotifier) {
	ledger := newMemLedger()
	notifier := &recordingNotifier{}
	return NewService(ledger, ledger, notifier), ledger, notifier
}

func TestTransferSuccess(t *testing.T) {
	svc, ledger, notifier := newTestService()
	ctx := context.Background()

	sender := ledger.seedAccount(100)
	recipient := ledger.seedAccount(100)

	result, err := svc.Transfer(ctx, sender, domain.TransferRequest{
		RecipientID: recipient,
		Amount:      40,
		Description: "lunch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got reason %s", result.Reason)
	}
	if result.TransactionID == 0 {
		t.Fatal("expected assigned transaction id")
	}

	senderBalance, _ := ledger.GetBalance(ctx, sender)
	recipientBalance, _ := ledger.GetBalance(ctx, recipient)
	if senderBalance != 60 || recipientBalance != 140 {
		t.Fatalf("expected balances 60/140, got %d/%d", senderBalance, recipientBalance)
	}

	history, err := svc.GetHistory(ctx, sender, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Transactions) != 1 {
		t.Fatalf("expected 1 ledger record, got %d", len(history.Transactions))
	}
	record := history.Transactions[0]
	if record.Type != domain.TypeTransfer || record.Status != domain.StatusCompleted {
		t.Fatalf("unexpected record type/status: %s/%s", record.Type, record.Status)
	}
	if record.RecipientID == nil || *record.RecipientID != recipient {
		t.Fatal("expected recipient recorded on ledger record")
	}

	events := notifier.published()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != domain.TypeTransfer || events[0].TransactionID != result.TransactionID {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestTransferValidationOrder(t *testing.T) {
	svc, ledger, _ := newTestService()
	ctx := context.Background()

	funded := ledger.seedAccount(50)
	peer := ledger.seedAccount(0)
	unknown := uuid.New()

	cases := []struct {
		name      string
		sender    uuid.UUID
		recipient uuid.UUID
		amount    int64
		reason    domain.FailureReason
	}{
		// Self transfer wins even when the amount is also invalid.
		{"self transfer before amount", funded, funded, -5, domain.ReasonSelfTransfer},
		{"zero amount", funded, peer, 0, domain.ReasonInvalidAmount},
		{"negative amount", funded, peer, -10, domain.ReasonInvalidAmount},
		// Unknown recipient is reported even when funds are also short.
		{"unknown recipient before funds", funded, unknown, 500, domain.ReasonAccountNotFound},
		{"unknown sender", unknown, peer, 10, domain.ReasonAccountNotFound},
		{"insufficient funds", funded, peer, 500, domain.ReasonInsufficientFunds},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Transfer(ctx, tc.sender, domain.TransferRequest{
				RecipientID: tc.recipient,
				Amount:      tc.amount,
			})
			if err != nil {
				t.Fatalf("business rejection must not be an error, got %v", err)
			}
			if result.Success {
				t.Fatal("expected rejection")
			}
			if result.Reason != tc.reason {
				t.Fatalf("expected reason %s, got %s", tc.reason, result.Reason)
			}
		})
	}

	// None of the rejected attempts may have touched balances or the ledger.
	balance, _ := ledger.GetBalance(ctx, funded)
	if balance != 50 {
		t.Fatalf("expected untouched balance 50, got %d", balance)
	}
	count, _ := ledger.CountTransactionsByAccount(ctx, funded)
	if count != 0 {
		t.Fatalf("expected empty ledger, got %d records", count)
	}
}

func TestTransferRejectionPublishesNoEvent(t *testing.T) {
	svc, ledger, notifier := newTestService()
	ctx := context.Background()

	sender := ledger.seedAccount(10)
	recipient := ledger.seedAccount(0)

	result, err := svc.Transfer(ctx, sender, domain.TransferRequest{RecipientID: recipient, Amount: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected rejection")
	}
	if len(notifier.published()) != 0 {
		t.Fatal("rejected transfer must not publish an event")
	}
}

func TestTransferSucceedsWhenPublishFails(t *testing.T) {
	ledger := newMemLedger()
	notifier := &recordingNotifier{err: errors.New("broker down")}
	svc := NewService(ledger, ledger, notifier)
	ctx := context.Background()

	sender := ledger.seedAccount(100)
	recipient := ledger.seedAccount(0)

	result, err := svc.Transfer(ctx, sender, domain.TransferRequest{RecipientID: recipient, Amount: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("publish failure must not fail the transfer, got reason %s", result.Reason)
	}

	balance, _ := ledger.GetBalance(ctx, recipient)
	if balance != 30 {
		t.Fatalf("expected credited balance 30, got %d", balance)
	}
	count, _ := ledger.CountTransactionsByAccount(ctx, sender)
	if count != 1 {
		t.Fatalf("expected committed ledger record, got %d", count)
	}
}

func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	svc, ledger, _ := newTestService()
	ctx := context.Background()

	sender := ledger.seedAccount(100)
	recipient := ledger.seedAccount(0)

	const attempts = 10
	const amount = 30

	var wg sync.WaitGroup
	results := make([]*domain.TransactionResult, attempts)
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Transfer(ctx, sender, domain.TransferRequest{
				RecipientID: recipient,
				Amount:      amount,
			})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			t.Fatalf("attempt %d returned error: %v", i, errs[i])
		}
		if results[i].Success {
			succeeded++
		} else if results[i].Reason != domain.ReasonInsufficientFunds {
			t.Fatalf("attempt %d rejected with unexpected reason %s", i, results[i].Reason)
		}
	}

	if succeeded != 3 {
		t.Fatalf("expected exactly 3 of %d transfers to succeed, got %d", attempts, succeeded)
	}
	senderBalance, _ := ledger.GetBalance(ctx, sender)
	recipientBalance, _ := ledger.GetBalance(ctx, recipient)
	if senderBalance != 10 || recipientBalance != 90 {
		t.Fatalf("expected balances 10/90, got %d/%d", senderBalance, recipientBalance)
	}
	count, _ := ledger.CountTransactionsByAccount(ctx, sender)
	if count != 3 {
		t.Fatalf("expected 3 ledger records, got %d", count)
	}
}

func TestSimulateMpesaDeposit(t *testing.T) {
	svc, ledger, notifier := newTestService()
	ctx := context.Background()

	account := ledger.seedAccount(0)

	result, err := svc.SimulateMpesa(ctx, account, domain.MpesaRequest{
		Type:        domain.TypeDeposit,
		Amount:      250,
		PhoneNumber: "+254712345678",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got reason %s", result.Reason)
	}

	balance, _ := ledger.GetBalance(ctx, account)
	if balance != 250 {
		t.Fatalf("expected balance 250, got %d", balance)
	}

	history, err := svc.GetHistory(ctx, account, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	record := history.Transactions[0]
	if record.Type != domain.TypeDeposit {
		t.Fatalf("expected DEPOSIT record, got %s", record.Type)
	}
	if record.RecipientID != nil {
		t.Fatal("m-pesa record must not carry a recipient")
	}
	if record.Description != "M-Pesa DEPOSIT via +254712345678" {
		t.Fatalf("unexpected description %q", record.Description)
	}

	events := notifier.published()
	if len(events) != 1 || events[0].Type != "MPESA_DEPOSIT" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].AccountID == nil || *events[0].AccountID != account {
		t.Fatal("expected account id on event")
	}
	if events[0].PhoneNumber != "+254712345678" {
		t.Fatalf("expected phone number on event, got %q", events[0].PhoneNumber)
	}
}

func TestSimulateMpesaWithdrawal(t *testing.T) {
	svc, ledger, _ := newTestService()
	ctx := context.Background()

	account := ledger.seedAccount(100)

	result, err := svc.SimulateMpesa(ctx, account, domain.MpesaRequest{
		Type:        domain.TypeWithdrawal,
		Amount:      60,
		PhoneNumber: "+254700000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got reason %s", result.Reason)
	}
	balance, _ := ledger.GetBalance(ctx, account)
	if balance != 40 {
		t.Fatalf("expected balance 40, got %d", balance)
	}

	// A second withdrawal beyond the remaining balance is rejected and leaves
	// no trace in the ledger.
	result, err = svc.SimulateMpesa(ctx, account, domain.MpesaRequest{
		Type:        domain.TypeWithdrawal,
		Amount:      50,
		PhoneNumber: "+254700000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || result.Reason != domain.ReasonInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %+v", result)
	}
	balance, _ = ledger.GetBalance(ctx, account)
	if balance != 40 {
		t.Fatalf("expected balance unchanged at 40, got %d", balance)
	}
	count, _ := ledger.CountTransactionsByAccount(ctx, account)
	if count != 1 {
		t.Fatalf("expected 1 ledger record, got %d", count)
	}
}

func TestSimulateMpesaUnknownAccount(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.SimulateMpesa(context.Background(), uuid.New(), domain.MpesaRequest{
		Type:   domain.TypeDeposit,
		Amount: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || result.Reason != domain.ReasonAccountNotFound {
		t.Fatalf("expected account not found, got %+v", result)
	}
}

func TestSimulateMpesaUnsupportedType(t *testing.T) {
	svc, ledger, _ := newTestService()

	account := ledger.seedAccount(0)
	_, err := svc.SimulateMpesa(context.Background(), account, domain.MpesaRequest{
		Type:   "TRANSFER",
		Amount: 100,
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestGetHistoryPagination(t *testing.T) {
	svc, ledger, _ := newTestService()
	ctx := context.Background()

	account := ledger.seedAccount(0)
	for i := 0; i < 25; i++ {
		result, err := svc.SimulateMpesa(ctx, account, domain.MpesaRequest{
			Type:        domain.TypeDeposit,
			Amount:      int64(i + 1),
			PhoneNumber: fmt.Sprintf("+2547%08d", i),
		})
		if err != nil || !result.Success {
			t.Fatalf("seed deposit %d: err=%v result=%+v", i, err, result)
		}
	}

	// Defaults apply when page and limit are out of range.
	page, err := svc.GetHistory(ctx, account, 0, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if page.Page != 1 || page.Limit != 10 {
		t.Fatalf("expected defaults 1/10, got %d/%d", page.Page, page.Limit)
	}
	if page.TotalCount != 25 || page.TotalPages != 3 {
		t.Fatalf("expected 25 records over 3 pages, got %d over %d", page.TotalCount, page.TotalPages)
	}
	if len(page.Transactions) != 10 {
		t.Fatalf("expected 10 records, got %d", len(page.Transactions))
	}
	// Newest first: the last deposit (amount 25) leads.
	if page.Transactions[0].Amount != 25 {
		t.Fatalf("expected newest record first, got amount %d", page.Transactions[0].Amount)
	}

	last, err := svc.GetHistory(ctx, account, 3, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(last.Transactions) != 5 {
		t.Fatalf("expected 5 records on last page, got %d", len(last.Transactions))
	}

	beyond, err := svc.GetHistory(ctx, account, 4, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(beyond.Transactions) != 0 {
		t.Fatalf("expected empty page beyond end, got %d records", len(beyond.Transactions))
	}
}

func TestGetHistoryUnknownAccount(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GetHistory(context.Background(), uuid.New(), 1, 10)
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
