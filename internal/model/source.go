package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Origin tags identify which refresh feed a yield source belongs to.
const (
	OriginSimulated = "simulated"
	OriginAaveV3    = "aave_v3"
)

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
	hoursPerDay = decimal.NewFromInt(24)
)

// YieldSource is a single yield-bearing position. Principal and rate are
// only mutated by a refresh replacing the whole source set for an origin.
type YieldSource struct {
	Name            string
	Origin          string
	PrincipalUSD    decimal.Decimal
	AnnualRatePct   decimal.Decimal
	ProtocolAddress string
	LastUpdated     time.Time
}

// DailyYield returns principal * (rate/100) / 365.
func (s YieldSource) DailyYield() decimal.Decimal {
	return s.PrincipalUSD.Mul(s.AnnualRatePct).Div(hundred).Div(daysPerYear)
}

// HourlyYield returns DailyYield / 24.
func (s YieldSource) HourlyYield() decimal.Decimal {
	return s.DailyYield().Div(hoursPerDay)
}
