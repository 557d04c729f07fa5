package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a transfer relative to the monitored wallet.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// TxStatus is assigned exactly once, at authorization time, and never revised.
type TxStatus string

const (
	StatusDetected     TxStatus = "detected"
	StatusWithinBudget TxStatus = "within_budget"
	StatusOverBudget   TxStatus = "over_budget"
)

// Transaction is the record of a detected transfer and the authorization
// outcome assigned to it. ID is the on-chain tx hash for detected transfers,
// or a generated reference for operator-initiated spends.
type Transaction struct {
	ID           string
	Timestamp    time.Time
	AmountUSD    decimal.Decimal
	Asset        string
	Direction    Direction
	Counterparty string
	Category     string
	Status       TxStatus
}
