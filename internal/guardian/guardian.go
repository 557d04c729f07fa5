package guardian

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"YieldGuardian/internal/audit"
	"YieldGuardian/internal/executor"
	"YieldGuardian/internal/ledger"
	"YieldGuardian/internal/model"
	"YieldGuardian/internal/notifier"
)

// TransferDetector delivers new wallet transfers, each id at most once.
type TransferDetector interface {
	PollNewTransfers(ctx context.Context) ([]model.Transaction, error)
	StablecoinBalances(ctx context.Context) map[string]decimal.Decimal
}

// SourceFetcher refreshes yield sources from a DeFi protocol.
type SourceFetcher interface {
	Sources(ctx context.Context) ([]model.YieldSource, error)
}

// TransferExecutor submits outbound transfers via a signing relay.
type TransferExecutor interface {
	Enabled() bool
	Execute(ctx context.Context, amount decimal.Decimal) (*executor.Result, error)
}

// Sender pushes messages to the operator.
type Sender interface {
	Send(text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Guardian is the driving loop: it accrues yield, refreshes sources, feeds
// detected transfers through the ledger, persists snapshots, and serves the
// operator command surface. All network calls complete before the matching
// ledger mutation, so the ledger lock is never held across I/O.
type Guardian struct {
	Cron     *cron.Cron
	Ledger   *ledger.Ledger
	Monitor  TransferDetector
	DeFi     SourceFetcher
	Executor TransferExecutor
	Notifier Sender
	Audit    audit.Writer
	Ctx      context.Context
}

// New creates a Guardian.
func New(ctx context.Context, led *ledger.Ledger, mon TransferDetector, defi SourceFetcher, exec TransferExecutor, tn Sender, aw audit.Writer) *Guardian {
	return &Guardian{
		Cron:     cron.New(cron.WithSeconds()),
		Ledger:   led,
		Monitor:  mon,
		DeFi:     defi,
		Executor: exec,
		Notifier: tn,
		Audit:    aw,
		Ctx:      ctx,
	}
}

// RegisterAll registers the accrual tick, source refresh, and snapshot tasks.
func (g *Guardian) RegisterAll(tickCron, refreshCron, snapshotCron string) error {
	if _, err := g.Cron.AddFunc(tickCron, g.tick); err != nil {
		return fmt.Errorf("register tick task: %w", err)
	}
	if _, err := g.Cron.AddFunc(refreshCron, g.RefreshSources); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := g.Cron.AddFunc(snapshotCron, g.WriteSnapshot); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	return nil
}

// Start starts the cron driver.
func (g *Guardian) Start() {
	g.Cron.Start()
	log.Println("[INFO] guardian driver started")
}

// Stop stops the cron driver, letting in-flight tasks finish.
func (g *Guardian) Stop() {
	g.Cron.Stop()
	log.Println("[INFO] guardian driver stopped")
}

// tick accrues yield for elapsed wall-clock time and processes new
// transfers. Late or missed ticks are harmless: accrual is computed from
// elapsed time, not tick count.
func (g *Guardian) tick() {
	if delta := g.Ledger.Accrue(time.Now()); !delta.IsZero() {
		log.Printf("[INFO] accrued $%s yield", delta.StringFixed(4))
	}
	g.ProcessTransfers()
}

// ProcessTransfers polls the detector and feeds each new transfer through
// authorization. Detector failures skip the cycle; the next tick retries.
func (g *Guardian) ProcessTransfers() {
	txs, err := g.Monitor.PollNewTransfers(g.Ctx)
	if err != nil {
		log.Printf("[WARN] poll transfers: %v", err)
		return
	}

	for i := range txs {
		tx := &txs[i]

		// Inbound transfers are not spends; they are recorded for audit
		// only. Same for zero-amount dust events.
		if tx.Direction != model.DirectionOut || !tx.AmountUSD.IsPositive() {
			if err := g.Audit.UpsertTransaction(tx); err != nil {
				log.Printf("[ERROR] audit transaction %s: %v", tx.ID, err)
			}
			continue
		}

		dec, err := g.Ledger.AuthorizeAndRecord(tx.AmountUSD)
		if err != nil {
			log.Printf("[ERROR] authorize transaction %s: %v", tx.ID, err)
			continue
		}
		if dec.WithinBudget {
			tx.Status = model.StatusWithinBudget
		} else {
			tx.Status = model.StatusOverBudget
		}

		// The spend already happened on-chain; an audit failure must not
		// revert the ledger booking.
		if err := g.Audit.UpsertTransaction(tx); err != nil {
			log.Printf("[ERROR] audit transaction %s: %v", tx.ID, err)
		}

		log.Printf("[INFO] transaction %s: %s %s (within budget: %v)",
			shortID(tx.ID), tx.AmountUSD.StringFixed(2), tx.Asset, dec.WithinBudget)
		g.trySend(notifier.FormatTransactionAlert(tx, dec, g.Ledger.AvailableBudget()))
	}
}

// RefreshSources replaces the DeFi-origin yield sources with fresh data.
// A fetch failure leaves the registry untouched.
func (g *Guardian) RefreshSources() {
	sources, err := g.DeFi.Sources(g.Ctx)
	if err != nil {
		log.Printf("[WARN] refresh yield sources: %v", err)
		return
	}
	g.Ledger.ReplaceSources(model.OriginAaveV3, sources)
	log.Printf("[INFO] refreshed %d DeFi yield sources", len(sources))
}

// WriteSnapshot persists the current ledger state for audit.
func (g *Guardian) WriteSnapshot() {
	snap := g.Ledger.Snapshot(time.Now())
	if err := g.Audit.WriteSnapshot(&snap); err != nil {
		log.Printf("[ERROR] write snapshot: %v", err)
	}
}

func (g *Guardian) trySend(text string) {
	if err := g.Notifier.SendWithRetry(g.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10] + "..."
	}
	return id
}
