package executor

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tradepulse/internal/domain"
)

// BinanceClient places signed market orders against the Binance spot
// API.
type BinanceClient struct {
	baseURL    string
	apiKey     string
	secret     string
	httpClient *http.Client
}

func NewBinanceClient(baseURL, apiKey, secret string) *BinanceClient {
	return &BinanceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type binanceOrderResponse struct {
	OrderID     int64  `json:"orderId"`
	ExecutedQty string `json:"executedQty"`
	Fills       []struct {
		Price string `json:"price"`
		Qty   string `json:"qty"`
	} `json:"fills"`
}

func (c *BinanceClient) PlaceOrder(ctx context.Context, req OrderRequest) (OrderFill, error) {
	marketID, ok := domain.MarketID[req.Symbol]
	if !ok {
		return OrderFill{}, fmt.Errorf("unsupported symbol: %s", req.Symbol)
	}
	side := "BUY"
	if req.Direction == domain.DirectionSell {
		side = "SELL"
	}

	params := url.Values{}
	params.Set("symbol", marketID)
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(req.Size, 'f', 8, 64))
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	payload := params.Encode()
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(payload))
	payload += "&signature=" + hex.EncodeToString(mac.Sum(nil))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v3/order", strings.NewReader(payload))
	if err != nil {
		return OrderFill{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return OrderFill{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return OrderFill{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return OrderFill{}, fmt.Errorf("order rejected: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed binanceOrderResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return OrderFill{}, fmt.Errorf("decode order response: %w", err)
	}
	return fillFromResponse(parsed)
}

// fillFromResponse reduces per-trade fills into one volume-weighted
// fill.
func fillFromResponse(resp binanceOrderResponse) (OrderFill, error) {
	executed, err := strconv.ParseFloat(resp.ExecutedQty, 64)
	if err != nil {
		return OrderFill{}, fmt.Errorf("parse executedQty %q: %w", resp.ExecutedQty, err)
	}

	var notional, qty float64
	for _, f := range resp.Fills {
		p, err := strconv.ParseFloat(f.Price, 64)
		if err != nil {
			return OrderFill{}, fmt.Errorf("parse fill price %q: %w", f.Price, err)
		}
		q, err := strconv.ParseFloat(f.Qty, 64)
		if err != nil {
			return OrderFill{}, fmt.Errorf("parse fill qty %q: %w", f.Qty, err)
		}
		notional += p * q
		qty += q
	}

	fill := OrderFill{
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Size:    executed,
	}
	if qty > 0 {
		fill.Price = notional / qty
	}
	return fill, nil
}
