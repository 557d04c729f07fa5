package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SpendingMode selects what fraction of net yield is exposed as spendable.
type SpendingMode string

const (
	ModeConservative SpendingMode = "conservative"
	ModeBalanced     SpendingMode = "balanced"
	ModeGrowth       SpendingMode = "growth"
)

// ErrUnknownMode is returned when a mode name is not in the closed set.
var ErrUnknownMode = fmt.Errorf("unknown spending mode")

var retentions = map[SpendingMode]decimal.Decimal{
	ModeConservative: decimal.NewFromFloat(0.5),
	ModeBalanced:     decimal.NewFromFloat(0.8),
	ModeGrowth:       decimal.NewFromFloat(0.3),
}

// ParseSpendingMode validates a mode name against the closed set.
func ParseSpendingMode(name string) (SpendingMode, error) {
	m := SpendingMode(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := retentions[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return m, nil
}

// Valid reports whether the mode is a member of the closed set.
func (m SpendingMode) Valid() bool {
	_, ok := retentions[m]
	return ok
}

// Retention returns the spendable fraction of net yield for this mode.
// Calling it on an unvalidated mode value is a programming error.
func (m SpendingMode) Retention() decimal.Decimal {
	r, ok := retentions[m]
	if !ok {
		panic(fmt.Sprintf("retention of invalid spending mode %q", m))
	}
	return r
}

// Title returns the display form, e.g. "Balanced".
func (m SpendingMode) Title() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}
