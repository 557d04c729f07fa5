package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerSnapshot is a consistent copy of ledger state taken under the
// ledger lock, used for persistence and operator display.
type LedgerSnapshot struct {
	Timestamp         time.Time
	PrincipalUSD      decimal.Decimal
	AccruedYieldUSD   decimal.Decimal
	SpentFromYieldUSD decimal.Decimal
	Mode              SpendingMode
	AvailableBudget   decimal.Decimal
	TotalDailyYield   decimal.Decimal
	Sources           []YieldSource
}

// NetYield returns accrued minus spent.
func (s LedgerSnapshot) NetYield() decimal.Decimal {
	return s.AccruedYieldUSD.Sub(s.SpentFromYieldUSD)
}
