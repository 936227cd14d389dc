// Package feed serves ticker, OHLCV, and RSI reads per symbol. Values
// are cached in Redis to bound upstream call volume; on provider
// failure the last good value is served with a staleness flag, and only
// a total miss surfaces ErrDataUnavailable.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"tradepulse/internal/domain"
	"tradepulse/internal/indicator"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ohlcvLookback = 250
	rsiPeriod     = 14
)

type PriceProvider interface {
	FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error)
	FetchOHLCV(ctx context.Context, symbol string, limit int) ([]domain.Candle, error)
}

type CandleRepository interface {
	UpsertCandles(ctx context.Context, candles []domain.Candle) error
}

type Feed struct {
	tracer     trace.Tracer
	provider   PriceProvider
	rdb        *redis.Client
	candleRepo CandleRepository
	tickerTTL  time.Duration
	ohlcvTTL   time.Duration

	fallback *fallbackStore
}

func New(
	tracer trace.Tracer,
	provider PriceProvider,
	rdb *redis.Client,
	candleRepo CandleRepository,
	tickerTTL, ohlcvTTL time.Duration,
) *Feed {
	if tickerTTL <= 0 {
		tickerTTL = 15 * time.Second
	}
	if ohlcvTTL <= 0 {
		ohlcvTTL = 60 * time.Second
	}
	return &Feed{
		tracer:     tracer,
		provider:   provider,
		rdb:        rdb,
		candleRepo: candleRepo,
		tickerTTL:  tickerTTL,
		ohlcvTTL:   ohlcvTTL,
		fallback:   newFallbackStore(),
	}
}

// Ticker returns the latest market snapshot for one symbol.
func (f *Feed) Ticker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	ctx, span := f.tracer.Start(ctx, "feed.ticker")
	span.SetAttributes(attribute.String("symbol", symbol))
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !domain.IsSupportedSymbol(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	key := "ticker:" + symbol
	var cached domain.Ticker
	if f.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	t, err := f.provider.FetchTicker(ctx, symbol)
	if err != nil {
		if last, ok := f.fallback.ticker(symbol); ok {
			log.Printf("ticker fetch failed for %s, serving stale value: %v", symbol, err)
			last.Stale = true
			return &last, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrDataUnavailable, symbol)
	}

	f.fallback.setTicker(symbol, *t)
	f.cacheSet(ctx, key, t, f.tickerTTL)
	return t, nil
}

// OHLCV returns ordered bars for one symbol, oldest first. Fetched bars
// are also persisted so indicator history survives restarts.
func (f *Feed) OHLCV(ctx context.Context, symbol string) ([]domain.Candle, error) {
	ctx, span := f.tracer.Start(ctx, "feed.ohlcv")
	span.SetAttributes(attribute.String("symbol", symbol))
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !domain.IsSupportedSymbol(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	key := "ohlcv:" + symbol
	var cached []domain.Candle
	if f.cacheGet(ctx, key, &cached) && len(cached) > 0 {
		return cached, nil
	}

	candles, err := f.provider.FetchOHLCV(ctx, symbol, ohlcvLookback)
	if err != nil {
		if last, ok := f.fallback.candles(symbol); ok {
			log.Printf("ohlcv fetch failed for %s, serving stale bars: %v", symbol, err)
			return last, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrDataUnavailable, symbol)
	}

	f.fallback.setCandles(symbol, candles)
	f.cacheSet(ctx, key, candles, f.ohlcvTTL)

	if f.candleRepo != nil {
		if err := f.candleRepo.UpsertCandles(ctx, candles); err != nil {
			log.Printf("candle upsert failed for %s: %v", symbol, err)
		}
	}
	return candles, nil
}

// RSI returns the RSI series aligned 1:1 with the OHLCV bars.
func (f *Feed) RSI(ctx context.Context, symbol string) ([]domain.RSIPoint, error) {
	ctx, span := f.tracer.Start(ctx, "feed.rsi")
	span.SetAttributes(attribute.String("symbol", symbol))
	defer span.End()

	candles, err := f.OHLCV(ctx, symbol)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(candles))
	for i := range candles {
		closes[i] = candles[i].Close
	}
	series, err := indicator.RSI(closes, rsiPeriod)
	if err != nil {
		return nil, err
	}

	points := make([]domain.RSIPoint, len(series))
	for i := range series {
		points[i] = domain.RSIPoint{Time: candles[i].OpenTime, RSI: series[i]}
	}
	return points, nil
}

func (f *Feed) cacheGet(ctx context.Context, key string, out any) bool {
	if f.rdb == nil {
		return false
	}
	raw, err := f.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (f *Feed) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if f.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := f.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache set failed for %s: %v", key, err)
	}
}
