package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_Success(t *testing.T) {
	var got transferRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transfers", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"success":true,"tx_hash":"0xdead","explorer_url":"https://basescan.org/tx/0xdead"}`)
	}))
	defer srv.Close()

	e := New(srv.URL, "secret", "0xcard", "")
	res, err := e.Execute(context.Background(), decimal.RequireFromString("25.5"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "0xdead", res.TxHash)

	assert.Equal(t, "25.5", got.AmountUSD)
	assert.Equal(t, "0xcard", got.Destination)
	_, err = uuid.Parse(got.RequestID)
	assert.NoError(t, err, "request id must be a uuid")
}

func TestExecute_RelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"error":"insufficient agent balance"}`)
	}))
	defer srv.Close()

	e := New(srv.URL, "", "0xcard", "")
	res, err := e.Execute(context.Background(), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient agent balance", res.Error)
}

func TestExecute_Unconfigured(t *testing.T) {
	e := New("", "", "", "")
	assert.False(t, e.Enabled())
	_, err := e.Execute(context.Background(), decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestExecute_RelayUnreachableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	e := New(srv.URL, "", "0xcard", "")
	_, err := e.Execute(context.Background(), decimal.NewFromInt(1))
	assert.Error(t, err)
}
