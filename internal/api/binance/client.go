package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/internal/model"
	httpClient "github.com/algotrade-lab/signaler/internal/platform/http"
	"github.com/algotrade-lab/signaler/internal/ratelimit"
)

const recvWindow = 5000 // ms

// Client is a thin wrapper over the exchange's REST API. Public market-data
// calls go through the retrying platform client; signed calls acquire tokens
// from the composite limiter first.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	public     *httpClient.Client
	httpClient *http.Client
	limiter    *ratelimit.CompositeLimiter
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	APIKey         string
	APISecret      string
	BaseURL        string
	RequestTimeout time.Duration
	Limiter        *ratelimit.CompositeLimiter
}

// NewClient creates a new exchange API client
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.binance.com"
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Limiter == nil {
		// 1200 request weight per minute, 50 orders per 10 seconds
		opts.Limiter = ratelimit.NewCompositeLimiter(
			ratelimit.NewLimiter(1200, 20),
			ratelimit.NewLimiter(50, 5),
			nil, nil,
		)
	}

	return &Client{
		apiKey:    opts.APIKey,
		apiSecret: opts.APISecret,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		public: httpClient.NewClient(httpClient.ClientOptions{
			Timeout: opts.RequestTimeout,
		}),
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		limiter:    opts.Limiter,
		logger:     log.With().Str("component", "binance_client").Logger(),
	}
}

// APIError is a structured error returned by the exchange
type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange API error %d: %s", e.Code, e.Msg)
}

// GetKlines fetches up to limit candles for the symbol and interval, oldest first
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	query := buildQueryString(map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	})

	body, err := c.public.GetBody(ctx, c.baseURL+"/api/v3/klines?"+query)
	if err != nil {
		return nil, fmt.Errorf("fetching klines: %w", err)
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing klines response: %w", err)
	}

	candles := make([]model.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("malformed kline row with %d fields", len(row))
		}
		candle, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("parsing kline: %w", err)
		}
		candles = append(candles, candle)
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(candles)).Msg("candles fetched")
	return candles, nil
}

func parseKline(row []json.RawMessage) (model.Candle, error) {
	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return model.Candle{}, err
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(row[i], &s); err != nil {
			return model.Candle{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Candle{}, err
		}
		fields[i-1] = v
	}

	return model.Candle{
		Timestamp: time.UnixMilli(openTime).UTC(),
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

// GetBalance returns the free balance of an asset from the signed account endpoint
func (c *Client) GetBalance(ctx context.Context, asset string) (float64, error) {
	var resp struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}

	err := c.limiter.Execute(ctx, "account", func() error {
		body, err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", map[string]string{})
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &resp)
	})
	if err != nil {
		return 0, fmt.Errorf("fetching account: %w", err)
	}

	for _, b := range resp.Balances {
		if b.Asset == asset {
			free, err := strconv.ParseFloat(b.Free, 64)
			if err != nil {
				return 0, fmt.Errorf("parsing %s balance: %w", asset, err)
			}
			return free, nil
		}
	}
	return 0, nil
}

// OrderResult is the exchange's acknowledgement of a placed order
type OrderResult struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
}

// PlaceOrder submits an order. price is only used for LIMIT orders. The core
// pipeline never calls this; the workflow entry point owns execution.
func (c *Client) PlaceOrder(ctx context.Context, symbol, side, orderType string, quantity, price float64) (*OrderResult, error) {
	params := map[string]string{
		"symbol":           symbol,
		"side":             side,
		"type":             orderType,
		"quantity":         strconv.FormatFloat(quantity, 'f', 4, 64),
		"newClientOrderId": uuid.NewString(),
	}
	if orderType == "LIMIT" {
		params["price"] = strconv.FormatFloat(price, 'f', 6, 64)
		params["timeInForce"] = "GTC"
	}

	var result OrderResult
	err := c.limiter.Execute(ctx, "order", func() error {
		body, err := c.signedRequest(ctx, http.MethodPost, "/api/v3/order", params)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &result)
	})
	if err != nil {
		return nil, fmt.Errorf("placing %s %s order: %w", side, orderType, err)
	}

	c.logger.Info().
		Int64("order_id", result.OrderID).
		Str("side", side).
		Float64("quantity", quantity).
		Msg("order placed")

	return &result, nil
}

// signedRequest appends timestamp/recvWindow, signs the query string with
// HMAC-SHA256 and performs the request with the API-key header set.
func (c *Client) signedRequest(ctx context.Context, method, path string, params map[string]string) ([]byte, error) {
	params["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
	params["recvWindow"] = strconv.Itoa(recvWindow)

	query := buildQueryString(params)
	query += "&signature=" + sign(c.apiSecret, query)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return nil, &apiErr
		}
		return nil, fmt.Errorf("non-200 status code: %d", resp.StatusCode)
	}

	return body, nil
}
