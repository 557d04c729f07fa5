package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// balanceOfSelector is the 4-byte selector of ERC-20 balanceOf(address).
const balanceOfSelector = "0x70a08231"

// rpcClient is a minimal JSON-RPC client for an EVM node.
type rpcClient struct {
	url    string
	client *http.Client
}

// newRPCClient creates a client with optional proxy support.
func newRPCClient(rpcURL, proxyURL string) *rpcClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &rpcClient{
		url: rpcURL,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *rpcClient) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rpc call %s: status %d, body: %s", method, resp.StatusCode, string(respBody))
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if rr.Error != nil {
		return nil, fmt.Errorf("rpc call %s: %s (code %d)", method, rr.Error.Message, rr.Error.Code)
	}
	return rr.Result, nil
}

// erc20BalanceOf reads an ERC-20 balance via eth_call and scales it by the
// token's decimals.
func (c *rpcClient) erc20BalanceOf(ctx context.Context, token, holder string, decimals int) (decimal.Decimal, error) {
	data := balanceOfSelector + padAddress(holder)
	raw, err := c.call(ctx, "eth_call", []any{
		map[string]string{"to": token, "data": data},
		"latest",
	})
	if err != nil {
		return decimal.Zero, err
	}
	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return decimal.Zero, fmt.Errorf("decode eth_call result: %w", err)
	}
	return parseTokenAmount(result, decimals)
}

// padAddress left-pads a hex address to a 32-byte ABI word.
func padAddress(addr string) string {
	a := strings.TrimPrefix(strings.ToLower(addr), "0x")
	return strings.Repeat("0", 64-len(a)) + a
}

// parseTokenAmount converts a hex eth_call result into a decimal scaled by
// the token's decimals. An empty "0x" result means zero.
func parseTokenAmount(hexResult string, decimals int) (decimal.Decimal, error) {
	h := strings.TrimPrefix(hexResult, "0x")
	if h == "" {
		return decimal.Zero, nil
	}
	raw, ok := new(big.Int).SetString(h, 16)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid hex amount %q", hexResult)
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)), nil
}
