package audit

import (
	"YieldGuardian/internal/model"
)

// Writer persists transaction records and ledger snapshots. Transaction
// upserts are idempotent by id; snapshots are append-only.
type Writer interface {
	UpsertTransaction(tx *model.Transaction) error
	WriteSnapshot(snap *model.LedgerSnapshot) error
	RecentTransactions(limit int) ([]model.Transaction, error)
	Close() error
}

// NoopWriter is a no-op implementation used when SQLite is not configured.
type NoopWriter struct{}

func NewNoopWriter() *NoopWriter { return &NoopWriter{} }

func (n *NoopWriter) UpsertTransaction(_ *model.Transaction) error   { return nil }
func (n *NoopWriter) WriteSnapshot(_ *model.LedgerSnapshot) error    { return nil }
func (n *NoopWriter) RecentTransactions(_ int) ([]model.Transaction, error) {
	return nil, nil
}
func (n *NoopWriter) Close() error { return nil }
