// Package provider implements the market-data contract against a
// Binance-compatible public REST API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tradepulse/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "https://api.binance.com"
	klineInterval  = "1m"
)

type BinanceProvider struct {
	tracer     trace.Tracer
	baseURL    string
	httpClient *http.Client
}

func NewBinanceProvider(tracer trace.Tracer, baseURL string) *BinanceProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &BinanceProvider{
		tracer:     tracer,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type ticker24h struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
}

func (p *BinanceProvider) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	ctx, span := p.tracer.Start(ctx, "provider.fetch-ticker")
	span.SetAttributes(attribute.String("symbol", symbol))
	defer span.End()

	marketID, ok := domain.MarketID[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", p.baseURL, url.QueryEscape(marketID))
	var payload ticker24h
	if err := p.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}

	t := &domain.Ticker{
		Symbol:    symbol,
		Price:     toF64(payload.LastPrice),
		Change24h: toF64(payload.PriceChangePercent),
		High24h:   toF64(payload.HighPrice),
		Low24h:    toF64(payload.LowPrice),
		Volume24h: toF64(payload.Volume),
	}
	if t.Price <= 0 {
		return nil, fmt.Errorf("fetch ticker %s: empty price in response", symbol)
	}
	return t, nil
}

func (p *BinanceProvider) FetchOHLCV(ctx context.Context, symbol string, limit int) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "provider.fetch-ohlcv")
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("limit", limit))
	defer span.End()

	marketID, ok := domain.MarketID[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	if limit <= 0 {
		limit = 250
	}

	endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		p.baseURL, url.QueryEscape(marketID), klineInterval, limit)

	var rows [][]any
	if err := p.getJSON(ctx, endpoint, &rows); err != nil {
		return nil, fmt.Errorf("fetch ohlcv %s: %w", symbol, err)
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		candles = append(candles, domain.Candle{
			Symbol:   symbol,
			OpenTime: time.UnixMilli(toI64(row[0])).UTC(),
			Open:     toF64(row[1]),
			High:     toF64(row[2]),
			Low:      toF64(row[3]),
			Close:    toF64(row[4]),
			Volume:   toF64(row[5]),
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("fetch ohlcv %s: empty kline response", symbol)
	}
	return candles, nil
}

func (p *BinanceProvider) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toF64(v any) float64 {
	switch x := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case float64:
		return x
	}
	return 0
}

func toI64(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	return 0
}
