package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"YieldGuardian/internal/config"
	"YieldGuardian/internal/model"
)

// Monitor watches the guarded wallet: stablecoin balances via JSON-RPC and
// new outgoing transfers via the explorer token-tx API. A process-lifetime
// seen-set guarantees no transfer id is delivered twice.
type Monitor struct {
	address     string
	rpc         *rpcClient
	tokens      []config.TokenConfig
	explorerAPI string
	apiKey      string
	client      *http.Client

	mu     sync.Mutex
	seen   map[string]struct{}
	primed bool
}

// NewMonitor creates a Monitor for the given wallet address.
func NewMonitor(address, rpcURL, explorerAPI, apiKey string, tokens []config.TokenConfig, proxyURL string) *Monitor {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Monitor{
		address:     strings.ToLower(address),
		rpc:         newRPCClient(rpcURL, proxyURL),
		tokens:      tokens,
		explorerAPI: explorerAPI,
		apiKey:      apiKey,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		seen: make(map[string]struct{}),
	}
}

// TokenBalance reads the wallet's balance of a single token.
func (m *Monitor) TokenBalance(ctx context.Context, token config.TokenConfig) (decimal.Decimal, error) {
	return m.rpc.erc20BalanceOf(ctx, token.Address, m.address, token.Decimals)
}

// StablecoinBalances returns per-symbol balances for every configured token,
// omitting zero balances. A failing token is logged and skipped.
func (m *Monitor) StablecoinBalances(ctx context.Context) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, token := range m.tokens {
		bal, err := m.TokenBalance(ctx, token)
		if err != nil {
			log.Printf("[WARN] balance of %s: %v", token.Symbol, err)
			continue
		}
		if bal.IsPositive() {
			balances[token.Symbol] = bal
		}
	}
	return balances
}

// TotalBalanceUSD sums all stablecoin balances.
func (m *Monitor) TotalBalanceUSD(ctx context.Context) decimal.Decimal {
	total := decimal.Zero
	for _, bal := range m.StablecoinBalances(ctx) {
		total = total.Add(bal)
	}
	return total
}

// explorerTx is one row of the explorer's token-tx listing.
type explorerTx struct {
	Hash         string `json:"hash"`
	TimeStamp    string `json:"timeStamp"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenDecimal string `json:"tokenDecimal"`
}

// PollNewTransfers returns transfers not delivered before, newest last.
// The first poll seeds the seen-set with current history and returns
// nothing, so a restart does not replay old transfers as fresh spends.
func (m *Monitor) PollNewTransfers(ctx context.Context) ([]model.Transaction, error) {
	endpoint := fmt.Sprintf("%s?module=account&action=tokentx&address=%s&page=1&offset=25&sort=desc",
		m.explorerAPI, m.address)
	if m.apiKey != "" {
		endpoint += "&apikey=" + url.QueryEscape(m.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll transfers: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("poll transfers: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Status string       `json:"status"`
		Result []explorerTx `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.primed {
		for _, tx := range result.Result {
			m.seen[tx.Hash] = struct{}{}
		}
		m.primed = true
		return nil, nil
	}

	var fresh []model.Transaction
	// The listing is newest-first; walk backwards so output is chronological.
	for i := len(result.Result) - 1; i >= 0; i-- {
		tx := result.Result[i]
		if _, ok := m.seen[tx.Hash]; ok {
			continue
		}
		m.seen[tx.Hash] = struct{}{}

		parsed, err := m.toTransaction(tx)
		if err != nil {
			log.Printf("[WARN] skip malformed transfer %s: %v", tx.Hash, err)
			continue
		}
		fresh = append(fresh, parsed)
	}
	return fresh, nil
}

func (m *Monitor) toTransaction(tx explorerTx) (model.Transaction, error) {
	unix, err := strconv.ParseInt(tx.TimeStamp, 10, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("timestamp %q: %w", tx.TimeStamp, err)
	}
	tokenDecimals, err := strconv.Atoi(tx.TokenDecimal)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("token decimals %q: %w", tx.TokenDecimal, err)
	}
	raw, err := decimal.NewFromString(tx.Value)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("value %q: %w", tx.Value, err)
	}
	amount := raw.Shift(-int32(tokenDecimals))

	direction := model.DirectionIn
	counterparty := strings.ToLower(tx.From)
	if strings.ToLower(tx.From) == m.address {
		direction = model.DirectionOut
		counterparty = strings.ToLower(tx.To)
	}

	return model.Transaction{
		ID:           tx.Hash,
		Timestamp:    time.Unix(unix, 0),
		AmountUSD:    amount,
		Asset:        tx.TokenSymbol,
		Direction:    direction,
		Counterparty: counterparty,
		Status:       model.StatusDetected,
	}, nil
}
