package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klinesBody = `[
  [1700000000000, "0.525", "0.530", "0.523", "0.528", "1000.5", 1700000899999, "0", 10, "0", "0", "0"],
  [1700000900000, "0.528", "0.535", "0.526", "0.533", "980.2", 1700001799999, "0", 12, "0", "0", "0"]
]`

func TestGetKlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Write([]byte(klinesBody))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, RequestTimeout: 5 * time.Second})

	candles, err := client.GetKlines(context.Background(), "BTCUSDT", "15m", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), candles[0].Timestamp)
	assert.Equal(t, 0.525, candles[0].Open)
	assert.Equal(t, 0.530, candles[0].High)
	assert.Equal(t, 0.523, candles[0].Low)
	assert.Equal(t, 0.528, candles[0].Close)
	assert.Equal(t, 1000.5, candles[0].Volume)
	assert.True(t, candles[1].Timestamp.After(candles[0].Timestamp))
}

func TestGetKlinesMalformedRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000, "0.525"]]`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, RequestTimeout: 5 * time.Second})

	_, err := client.GetKlines(context.Background(), "BTCUSDT", "15m", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed kline row")
}

func TestSignedRequestHeadersAndSignature(t *testing.T) {
	var gotKey, gotQuery, gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-MBX-APIKEY")
		gotSignature = r.URL.Query().Get("signature")
		q := r.URL.Query()
		q.Del("signature")
		gotQuery = buildQueryString(flatten(q))
		w.Write([]byte(`{"balances":[{"asset":"USDT","free":"123.45"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		APIKey:         "test-key",
		APISecret:      "test-secret",
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
	})

	free, err := client.GetBalance(context.Background(), "USDT")
	require.NoError(t, err)
	assert.Equal(t, 123.45, free)

	assert.Equal(t, "test-key", gotKey)
	// The signature must cover the sorted query string minus itself
	assert.Equal(t, sign("test-secret", gotQuery), gotSignature)
}

func TestSignedRequestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1013,"msg":"Invalid quantity."}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		APIKey:         "test-key",
		APISecret:      "test-secret",
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
	})

	_, err := client.PlaceOrder(context.Background(), "BTCUSDT", "BUY", "MARKET", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid quantity")
}

func TestGetBalanceUnknownAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balances":[{"asset":"BTC","free":"0.5"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, RequestTimeout: 5 * time.Second})

	free, err := client.GetBalance(context.Background(), "USDT")
	require.NoError(t, err)
	assert.Zero(t, free)
}

func flatten(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
