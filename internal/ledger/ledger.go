package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"YieldGuardian/internal/model"
)

// AccrualThreshold is the minimum elapsed time before an accrual is applied.
// Ticks arriving faster than this are no-ops.
const AccrualThreshold = 6 * time.Minute

// ErrNegativeAmount is returned when a spend amount below zero reaches the
// authorization boundary. State is never mutated in that case.
var ErrNegativeAmount = fmt.Errorf("spend amount must be non-negative")

// Decision is the outcome of a spend authorization. The spend is always
// booked; WithinBudget only reports whether it fit.
type Decision struct {
	WithinBudget bool
	AmountUSD    decimal.Decimal
	BudgetUSD    decimal.Decimal
	// RemainingUSD is budget minus amount when within budget.
	RemainingUSD decimal.Decimal
	// OverageUSD is amount minus budget when over budget.
	OverageUSD decimal.Decimal
}

// Ledger tracks principal, accrued yield, spent yield, and the active
// spending mode. All state is guarded by a single mutex; methods never
// perform I/O while holding it.
type Ledger struct {
	mu            sync.Mutex
	principal     decimal.Decimal
	accrued       decimal.Decimal
	spent         decimal.Decimal
	mode          model.SpendingMode
	sources       *registry
	lastAccrualAt time.Time
}

// New creates a Ledger. Principal and initial yield must be non-negative
// and the mode must be a member of the closed set.
func New(principal, initialYield decimal.Decimal, mode model.SpendingMode, sources []model.YieldSource, now time.Time) (*Ledger, error) {
	if principal.IsNegative() {
		return nil, fmt.Errorf("principal must be non-negative, got %s", principal)
	}
	if initialYield.IsNegative() {
		return nil, fmt.Errorf("initial yield must be non-negative, got %s", initialYield)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
	}
	for _, s := range sources {
		if s.PrincipalUSD.IsNegative() || s.AnnualRatePct.IsNegative() {
			return nil, fmt.Errorf("yield source %q: principal and rate must be non-negative", s.Name)
		}
	}
	return &Ledger{
		principal:     principal,
		accrued:       initialYield,
		spent:         decimal.Zero,
		mode:          mode,
		sources:       newRegistry(sources),
		lastAccrualAt: now,
	}, nil
}

// Accrue applies yield for the time elapsed since the last accrual and
// returns the amount added. Elapsed intervals below AccrualThreshold are
// skipped without advancing the accrual clock, so no interval is ever lost
// or double-counted.
func (l *Ledger) Accrue(now time.Time) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := now.Sub(l.lastAccrualAt)
	if elapsed < AccrualThreshold {
		return decimal.Zero
	}

	hours := decimal.NewFromFloat(elapsed.Hours())
	delta := l.sources.totalHourlyYield().Mul(hours)
	l.accrued = l.accrued.Add(delta)
	l.lastAccrualAt = now
	return delta
}

// AvailableBudget returns (accrued - spent) * retention. It can be negative
// when spending has outpaced accrual.
func (l *Ledger) AvailableBudget() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.availableBudgetLocked()
}

func (l *Ledger) availableBudgetLocked() decimal.Decimal {
	return l.accrued.Sub(l.spent).Mul(l.mode.Retention())
}

// AuthorizeAndRecord books a spend against yield and reports whether it fit
// the budget. The spend is recorded unconditionally: the engine tracks real
// outflow, it does not block it. Negative amounts are rejected before any
// mutation.
func (l *Ledger) AuthorizeAndRecord(amount decimal.Decimal) (Decision, error) {
	if amount.IsNegative() {
		return Decision{}, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	budget := l.availableBudgetLocked()
	l.spent = l.spent.Add(amount)

	d := Decision{
		AmountUSD: amount,
		BudgetUSD: budget,
	}
	if amount.LessThanOrEqual(budget) {
		d.WithinBudget = true
		d.RemainingUSD = budget.Sub(amount)
	} else {
		d.OverageUSD = amount.Sub(budget)
	}
	return d, nil
}

// ReplaceSources atomically swaps all sources tagged with origin for a new
// set, leaving other origins untouched.
func (l *Ledger) ReplaceSources(origin string, sources []model.YieldSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources.replaceOrigin(origin, sources)
}

// SetMode swaps the active spending policy. It mutates no monetary totals;
// the new retention applies from the next budget read.
func (l *Ledger) SetMode(mode model.SpendingMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = mode
	return nil
}

// Mode returns the currently selected spending mode.
func (l *Ledger) Mode() model.SpendingMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// TotalDailyYield returns the aggregate daily yield across all sources.
func (l *Ledger) TotalDailyYield() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sources.totalDailyYield()
}

// Snapshot returns a consistent copy of the ledger state.
func (l *Ledger) Snapshot(now time.Time) model.LedgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.LedgerSnapshot{
		Timestamp:         now,
		PrincipalUSD:      l.principal,
		AccruedYieldUSD:   l.accrued,
		SpentFromYieldUSD: l.spent,
		Mode:              l.mode,
		AvailableBudget:   l.availableBudgetLocked(),
		TotalDailyYield:   l.sources.totalDailyYield(),
		Sources:           l.sources.all(),
	}
}
