package audit

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"YieldGuardian/internal/model"
)

// SQLiteWriter persists audit records to a SQLite database. Monetary
// amounts are stored as TEXT to keep decimal values exact.
type SQLiteWriter struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteWriter opens (or creates) the SQLite database and runs migrations.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	w := &SQLiteWriter{db: db}
	if err := w.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite audit writer opened: %s", dbPath)
	return w, nil
}

func (w *SQLiteWriter) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			tx_hash       TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			amount_usd    TEXT,
			asset         TEXT,
			direction     TEXT,
			counterparty  TEXT,
			category      TEXT,
			status        TEXT,
			within_budget INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_ts ON transactions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS state_snapshots (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp            INTEGER NOT NULL,
			principal_usd        TEXT,
			accrued_yield_usd    TEXT,
			spent_from_yield_usd TEXT,
			spending_mode        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snap_ts ON state_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := w.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// UpsertTransaction writes a transaction record keyed by id. Re-writing the
// same id replaces the row instead of adding one.
func (w *SQLiteWriter) UpsertTransaction(tx *model.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	withinBudget := 0
	if tx.Status == model.StatusWithinBudget {
		withinBudget = 1
	}

	_, err := w.db.Exec(`INSERT OR REPLACE INTO transactions
		(tx_hash, timestamp, amount_usd, asset, direction, counterparty, category, status, within_budget)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		tx.ID, tx.Timestamp.Unix(), tx.AmountUSD.String(), tx.Asset,
		string(tx.Direction), tx.Counterparty, tx.Category, string(tx.Status), withinBudget,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
	}
	return nil
}

// WriteSnapshot appends a ledger snapshot row. Rows are never overwritten.
func (w *SQLiteWriter) WriteSnapshot(snap *model.LedgerSnapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.db.Exec(`INSERT INTO state_snapshots
		(timestamp, principal_usd, accrued_yield_usd, spent_from_yield_usd, spending_mode)
		VALUES (?,?,?,?,?)`,
		snap.Timestamp.Unix(), snap.PrincipalUSD.String(),
		snap.AccruedYieldUSD.String(), snap.SpentFromYieldUSD.String(),
		string(snap.Mode),
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// RecentTransactions returns the newest records first.
func (w *SQLiteWriter) RecentTransactions(limit int) ([]model.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.db.Query(`SELECT tx_hash, timestamp, amount_usd, asset, direction, counterparty, category, status
		FROM transactions ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var ts int64
		var amount, direction, status string
		if err := rows.Scan(&tx.ID, &ts, &amount, &tx.Asset, &direction, &tx.Counterparty, &tx.Category, &status); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Timestamp = time.Unix(ts, 0)
		tx.AmountUSD, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		tx.Direction = model.Direction(direction)
		tx.Status = model.TxStatus(status)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (w *SQLiteWriter) Close() error {
	log.Println("[INFO] closing sqlite audit writer")
	return w.db.Close()
}
