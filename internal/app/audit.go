/**
 * @description
 * Scheduled ledger audit. On a cron schedule the auditor aggregates account
 * balances and ledger totals, logging the summary and raising a loud log line
 * when any account balance has gone negative. The audit is read-only and
 * never mutates the ledger.
 *
 * @dependencies
 * - github.com/robfig/cron/v3: Schedule parsing and job execution.
 * - internal/store: Repository access for the ledger summary query.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AllanKariuki/ledger-service/internal/store"
)

// Auditor periodically verifies ledger invariants.
type Auditor struct {
	repo store.Repository
	cron *cron.Cron
}

// NewAuditor creates an auditor without starting it.
func NewAuditor(repo store.Repository) *Auditor {
	return &Auditor{
		repo: repo,
		cron: cron.New(),
	}
}

// Start registers the audit job on the given cron schedule (standard five
// field syntax) and starts the scheduler.
func (a *Auditor) Start(schedule string) error {
	if _, err := a.cron.AddFunc(schedule, a.runOnce); err != nil {
		return fmt.Errorf("register audit schedule %q: %w", schedule, err)
	}
	a.cron.Start()
	log.Printf("Auditor: started schedule=%q", schedule)
	return nil
}

// Stop halts the scheduler and waits for a running audit to finish.
func (a *Auditor) Stop() {
	ctx := a.cron.Stop()
	<-ctx.Done()
}

func (a *Auditor) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := a.repo.SummarizeLedger(ctx)
	if err != nil {
		log.Printf("Auditor: summary query failed: %v", err)
		return
	}

	log.Printf("Auditor: accounts=%d transactions=%d total_balance=%d",
		summary.AccountCount, summary.TransactionCount, summary.TotalBalance)
	if summary.NegativeBalances > 0 {
		log.Printf("ALERT: Auditor found %d account(s) with negative balance", summary.NegativeBalances)
	}
}
