package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"YieldGuardian/internal/model"
)

const aUSDCDecimals = 6

// AaveTracker reads yield-bearing positions from Aave V3 on Base. The APY
// is a configured estimate; selecting an authoritative rate feed is out of
// scope for this process.
type AaveTracker struct {
	wallet       string
	rpc          *rpcClient
	pool         string
	aUSDC        string
	estimatedAPY decimal.Decimal
}

// NewAaveTracker creates a tracker for the given wallet.
func NewAaveTracker(wallet, rpcURL, proxyURL, pool, aUSDC string, estimatedAPY float64) *AaveTracker {
	return &AaveTracker{
		wallet:       strings.ToLower(wallet),
		rpc:          newRPCClient(rpcURL, proxyURL),
		pool:         pool,
		aUSDC:        aUSDC,
		estimatedAPY: decimal.NewFromFloat(estimatedAPY),
	}
}

// Sources returns the wallet's current Aave positions as yield sources.
// A zero aToken balance yields an empty set.
func (t *AaveTracker) Sources(ctx context.Context) ([]model.YieldSource, error) {
	balance, err := t.rpc.erc20BalanceOf(ctx, t.aUSDC, t.wallet, aUSDCDecimals)
	if err != nil {
		return nil, fmt.Errorf("aave aUSDC balance: %w", err)
	}
	if !balance.IsPositive() {
		return nil, nil
	}
	return []model.YieldSource{{
		Name:            "Aave V3 USDC",
		Origin:          model.OriginAaveV3,
		PrincipalUSD:    balance,
		AnnualRatePct:   t.estimatedAPY,
		ProtocolAddress: t.pool,
		LastUpdated:     time.Now(),
	}}, nil
}
