package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"YieldGuardian/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger(t *testing.T, accrued string, mode model.SpendingMode, sources ...model.YieldSource) *Ledger {
	t.Helper()
	l, err := New(d("1000"), d(accrued), mode, sources, time.Now())
	require.NoError(t, err)
	return l
}

func TestNew_Validation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		principal string
		initial   string
		mode      model.SpendingMode
		wantErr   bool
	}{
		{"valid", "1000", "0", model.ModeBalanced, false},
		{"zero principal ok", "0", "0", model.ModeConservative, false},
		{"negative principal", "-1", "0", model.ModeBalanced, true},
		{"negative initial yield", "1000", "-0.01", model.ModeBalanced, true},
		{"unknown mode", "1000", "0", model.SpendingMode("yolo"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(d(tt.principal), d(tt.initial), tt.mode, nil, now)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_RejectsNegativeSource(t *testing.T) {
	src := model.YieldSource{Name: "bad", Origin: model.OriginSimulated, PrincipalUSD: d("-5"), AnnualRatePct: d("4")}
	_, err := New(d("1000"), d("0"), model.ModeBalanced, []model.YieldSource{src}, time.Now())
	assert.Error(t, err)
}

func TestAccrue_Linearity(t *testing.T) {
	// 10000 at 4.38% -> daily 1.20, hourly 0.05.
	src := model.YieldSource{
		Name:          "Aave V3 USDC",
		Origin:        model.OriginAaveV3,
		PrincipalUSD:  d("10000"),
		AnnualRatePct: d("4.38"),
	}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l, err := New(d("10000"), d("0"), model.ModeBalanced, []model.YieldSource{src}, start)
	require.NoError(t, err)

	delta := l.Accrue(start.Add(2 * time.Hour))
	assert.True(t, delta.Equal(d("0.1")), "delta = %s", delta)

	snap := l.Snapshot(start)
	assert.True(t, snap.AccruedYieldUSD.Equal(d("0.1")), "accrued = %s", snap.AccruedYieldUSD)
}

func TestAccrue_BelowThresholdIsNoop(t *testing.T) {
	src := model.YieldSource{Name: "sim", Origin: model.OriginSimulated, PrincipalUSD: d("10000"), AnnualRatePct: d("4.38")}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l, err := New(d("10000"), d("0"), model.ModeBalanced, []model.YieldSource{src}, start)
	require.NoError(t, err)

	now := start.Add(2 * time.Hour)
	first := l.Accrue(now)
	require.False(t, first.IsZero())

	// An immediate re-tick is below the granularity threshold.
	again := l.Accrue(now.Add(time.Minute))
	assert.True(t, again.IsZero(), "expected no-op, got %s", again)

	snap := l.Snapshot(now)
	assert.True(t, snap.AccruedYieldUSD.Equal(first))
}

func TestAccrue_ThresholdDoesNotLoseTime(t *testing.T) {
	src := model.YieldSource{Name: "sim", Origin: model.OriginSimulated, PrincipalUSD: d("10000"), AnnualRatePct: d("4.38")}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l, err := New(d("10000"), d("0"), model.ModeBalanced, []model.YieldSource{src}, start)
	require.NoError(t, err)

	// A skipped sub-threshold tick must not advance the accrual clock:
	// the next qualifying tick covers the full elapsed interval.
	l.Accrue(start.Add(time.Minute))
	delta := l.Accrue(start.Add(2 * time.Hour))
	assert.True(t, delta.Equal(d("0.1")), "delta = %s", delta)
}

func TestAvailableBudget_Formula(t *testing.T) {
	l := newTestLedger(t, "100", model.ModeBalanced)
	assert.True(t, l.AvailableBudget().Equal(d("80")))
}

func TestAvailableBudget_CanGoNegative(t *testing.T) {
	l := newTestLedger(t, "10", model.ModeBalanced)
	_, err := l.AuthorizeAndRecord(d("50"))
	require.NoError(t, err)
	// (10 - 50) * 0.8 = -32
	assert.True(t, l.AvailableBudget().Equal(d("-32")), "budget = %s", l.AvailableBudget())
}

func TestSpendScenarios(t *testing.T) {
	// Scenarios A through C run against one ledger, in sequence.
	l := newTestLedger(t, "100", model.ModeBalanced)

	// A: budget 80, spend 50 -> approved, 30 remaining.
	assert.True(t, l.AvailableBudget().Equal(d("80")))
	dec, err := l.AuthorizeAndRecord(d("50"))
	require.NoError(t, err)
	assert.True(t, dec.WithinBudget)
	assert.True(t, dec.RemainingUSD.Equal(d("30")), "remaining = %s", dec.RemainingUSD)
	assert.True(t, l.Snapshot(time.Now()).SpentFromYieldUSD.Equal(d("50")))

	// B: budget (100-50)*0.8 = 40, spend exactly 40 -> approved.
	dec, err = l.AuthorizeAndRecord(d("40"))
	require.NoError(t, err)
	assert.True(t, dec.WithinBudget, "exactly-at-budget spend must be approved")
	assert.True(t, dec.BudgetUSD.Equal(d("40")))
	assert.True(t, l.Snapshot(time.Now()).SpentFromYieldUSD.Equal(d("90")))

	// C: budget (100-90)*0.8 = 8, spend 20 -> denied with overage 12,
	// but still booked.
	dec, err = l.AuthorizeAndRecord(d("20"))
	require.NoError(t, err)
	assert.False(t, dec.WithinBudget)
	assert.True(t, dec.OverageUSD.Equal(d("12")), "overage = %s", dec.OverageUSD)
	assert.True(t, l.Snapshot(time.Now()).SpentFromYieldUSD.Equal(d("110")))
}

func TestSetMode_ChangesBudgetOnly(t *testing.T) {
	// Scenario D: accrued 100, spent 50, balanced -> conservative.
	l := newTestLedger(t, "100", model.ModeBalanced)
	_, err := l.AuthorizeAndRecord(d("50"))
	require.NoError(t, err)
	assert.True(t, l.AvailableBudget().Equal(d("40")))

	require.NoError(t, l.SetMode(model.ModeConservative))
	assert.True(t, l.AvailableBudget().Equal(d("25")))

	snap := l.Snapshot(time.Now())
	assert.True(t, snap.AccruedYieldUSD.Equal(d("100")))
	assert.True(t, snap.SpentFromYieldUSD.Equal(d("50")))
	assert.Equal(t, model.ModeConservative, snap.Mode)
}

func TestSetMode_RejectsUnknown(t *testing.T) {
	l := newTestLedger(t, "100", model.ModeBalanced)
	err := l.SetMode(model.SpendingMode("degen"))
	assert.ErrorIs(t, err, model.ErrUnknownMode)
	assert.Equal(t, model.ModeBalanced, l.Mode())
}

func TestAuthorizeAndRecord_RejectsNegativeWithoutMutating(t *testing.T) {
	l := newTestLedger(t, "100", model.ModeBalanced)
	_, err := l.AuthorizeAndRecord(d("-5"))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	snap := l.Snapshot(time.Now())
	assert.True(t, snap.SpentFromYieldUSD.IsZero())
	assert.True(t, snap.AccruedYieldUSD.Equal(d("100")))
}

func TestAuthorizeAndRecord_ZeroAmount(t *testing.T) {
	l := newTestLedger(t, "100", model.ModeBalanced)
	dec, err := l.AuthorizeAndRecord(decimal.Zero)
	require.NoError(t, err)
	assert.True(t, dec.WithinBudget)
	assert.True(t, l.Snapshot(time.Now()).SpentFromYieldUSD.IsZero())
}

func TestReplaceSources_PreservesOtherOrigins(t *testing.T) {
	sim := model.YieldSource{Name: "Treasury ladder", Origin: model.OriginSimulated, PrincipalUSD: d("5000"), AnnualRatePct: d("5")}
	aave := model.YieldSource{Name: "Aave V3 USDC", Origin: model.OriginAaveV3, PrincipalUSD: d("10000"), AnnualRatePct: d("4")}
	l, err := New(d("15000"), d("0"), model.ModeBalanced, []model.YieldSource{sim, aave}, time.Now())
	require.NoError(t, err)

	refreshed := model.YieldSource{Name: "Aave V3 USDC", Origin: model.OriginAaveV3, PrincipalUSD: d("12000"), AnnualRatePct: d("4.5")}
	l.ReplaceSources(model.OriginAaveV3, []model.YieldSource{refreshed})

	sources := l.Snapshot(time.Now()).Sources
	require.Len(t, sources, 2)
	assert.Equal(t, model.OriginAaveV3, sources[0].Origin)
	assert.True(t, sources[0].PrincipalUSD.Equal(d("12000")))
	assert.Equal(t, model.OriginSimulated, sources[1].Origin)
	assert.True(t, sources[1].PrincipalUSD.Equal(d("5000")))
}

func TestReplaceSources_EmptySetClearsOrigin(t *testing.T) {
	aave := model.YieldSource{Name: "Aave V3 USDC", Origin: model.OriginAaveV3, PrincipalUSD: d("10000"), AnnualRatePct: d("4")}
	l, err := New(d("10000"), d("0"), model.ModeBalanced, []model.YieldSource{aave}, time.Now())
	require.NoError(t, err)

	l.ReplaceSources(model.OriginAaveV3, nil)
	assert.Empty(t, l.Snapshot(time.Now()).Sources)
	assert.True(t, l.TotalDailyYield().IsZero())
}

func TestMonotonicity(t *testing.T) {
	src := model.YieldSource{Name: "sim", Origin: model.OriginSimulated, PrincipalUSD: d("10000"), AnnualRatePct: d("4.38")}
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	l, err := New(d("10000"), d("0"), model.ModeBalanced, []model.YieldSource{src}, start)
	require.NoError(t, err)

	prevAccrued, prevSpent := decimal.Zero, decimal.Zero
	now := start
	for i := 0; i < 20; i++ {
		now = now.Add(17 * time.Minute)
		l.Accrue(now)
		if i%3 == 0 {
			_, err := l.AuthorizeAndRecord(d("0.25"))
			require.NoError(t, err)
		}
		snap := l.Snapshot(now)
		assert.True(t, snap.AccruedYieldUSD.GreaterThanOrEqual(prevAccrued))
		assert.True(t, snap.SpentFromYieldUSD.GreaterThanOrEqual(prevSpent))
		prevAccrued, prevSpent = snap.AccruedYieldUSD, snap.SpentFromYieldUSD
	}
}

func TestConcurrentAuthorize(t *testing.T) {
	l := newTestLedger(t, "1000", model.ModeBalanced)

	const workers = 8
	const spendsPerWorker = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < spendsPerWorker; j++ {
				if _, err := l.AuthorizeAndRecord(d("0.5")); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	want := d("0.5").Mul(decimal.NewFromInt(workers * spendsPerWorker))
	got := l.Snapshot(time.Now()).SpentFromYieldUSD
	assert.True(t, got.Equal(want), "spent = %s, want %s", got, want)
}
