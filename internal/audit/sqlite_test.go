package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"YieldGuardian/internal/model"
)

func newTestWriter(t *testing.T) *SQLiteWriter {
	t.Helper()
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestUpsertTransaction_IdempotentByID(t *testing.T) {
	w := newTestWriter(t)

	tx := &model.Transaction{
		ID:        "0xabc",
		Timestamp: time.Unix(1700000000, 0),
		AmountUSD: decimal.RequireFromString("12.50"),
		Asset:     "USDC",
		Direction: model.DirectionOut,
		Status:    model.StatusWithinBudget,
	}
	require.NoError(t, w.UpsertTransaction(tx))
	require.NoError(t, w.UpsertTransaction(tx))

	got, err := w.RecentTransactions(10)
	require.NoError(t, err)
	require.Len(t, got, 1, "re-upserting the same id must not add rows")
	assert.Equal(t, "0xabc", got[0].ID)
	assert.True(t, got[0].AmountUSD.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, model.StatusWithinBudget, got[0].Status)
}

func TestRecentTransactions_NewestFirst(t *testing.T) {
	w := newTestWriter(t)

	for i, id := range []string{"0x1", "0x2", "0x3"} {
		require.NoError(t, w.UpsertTransaction(&model.Transaction{
			ID:        id,
			Timestamp: time.Unix(int64(1700000000+i*60), 0),
			AmountUSD: decimal.NewFromInt(int64(i + 1)),
			Asset:     "USDC",
			Direction: model.DirectionOut,
			Status:    model.StatusOverBudget,
		}))
	}

	got, err := w.RecentTransactions(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0x3", got[0].ID)
	assert.Equal(t, "0x2", got[1].ID)
}

func TestWriteSnapshot_AppendOnly(t *testing.T) {
	w := newTestWriter(t)

	snap := &model.LedgerSnapshot{
		Timestamp:         time.Unix(1700000000, 0),
		PrincipalUSD:      decimal.NewFromInt(1000),
		AccruedYieldUSD:   decimal.RequireFromString("100.25"),
		SpentFromYieldUSD: decimal.NewFromInt(50),
		Mode:              model.ModeBalanced,
	}
	require.NoError(t, w.WriteSnapshot(snap))

	snap2 := *snap
	snap2.Timestamp = time.Unix(1700003600, 0)
	snap2.SpentFromYieldUSD = decimal.NewFromInt(90)
	require.NoError(t, w.WriteSnapshot(&snap2))

	var count int
	require.NoError(t, w.db.QueryRow(`SELECT COUNT(*) FROM state_snapshots`).Scan(&count))
	assert.Equal(t, 2, count, "snapshots must append, never overwrite")

	var spent string
	require.NoError(t, w.db.QueryRow(
		`SELECT spent_from_yield_usd FROM state_snapshots ORDER BY timestamp DESC LIMIT 1`).Scan(&spent))
	assert.Equal(t, "90", spent)
}
