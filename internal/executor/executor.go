package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result is the outcome of a transfer request.
type Result struct {
	Success     bool   `json:"success"`
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url"`
	Error       string `json:"error"`
}

// Executor submits USDC transfers to a signing relay. The relay holds the
// agent wallet key and owns building, signing, and broadcasting; this
// process only requests transfers. Each request carries a fresh uuid so the
// relay can deduplicate retries.
type Executor struct {
	relayURL    string
	apiKey      string
	destination string
	client      *http.Client
}

// New creates an Executor. relayURL empty means transfers are disabled.
func New(relayURL, apiKey, destination, proxyURL string) *Executor {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Executor{
		relayURL:    relayURL,
		apiKey:      apiKey,
		destination: destination,
		client: &http.Client{
			// On-chain confirmation can take a while; the relay replies
			// only once the transfer is final.
			Timeout:   2 * time.Minute,
			Transport: transport,
		},
	}
}

// Enabled reports whether a relay is configured.
func (e *Executor) Enabled() bool {
	return e.relayURL != ""
}

// Destination returns the configured payout address.
func (e *Executor) Destination() string {
	return e.destination
}

type transferRequest struct {
	RequestID   string `json:"request_id"`
	AmountUSD   string `json:"amount_usd"`
	Destination string `json:"destination"`
}

// Execute requests a transfer of amount USDC to the configured destination.
// A Result with Success=false carries the relay's error; a returned error
// means the relay was unreachable.
func (e *Executor) Execute(ctx context.Context, amount decimal.Decimal) (*Result, error) {
	if !e.Enabled() {
		return nil, fmt.Errorf("transfer executor is not configured")
	}

	body, err := json.Marshal(transferRequest{
		RequestID:   uuid.NewString(),
		AmountUSD:   amount.String(),
		Destination: e.destination,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.relayURL+"/api/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute transfer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("execute transfer: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transfer result: %w", err)
	}
	return &result, nil
}
