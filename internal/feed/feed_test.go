package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradepulse/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type stubProvider struct {
	ticker      *domain.Ticker
	candles     []domain.Candle
	tickerErr   error
	ohlcvErr    error
	tickerCalls int
	ohlcvCalls  int
}

func (s *stubProvider) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	s.tickerCalls++
	if s.tickerErr != nil {
		return nil, s.tickerErr
	}
	t := *s.ticker
	return &t, nil
}

func (s *stubProvider) FetchOHLCV(ctx context.Context, symbol string, limit int) ([]domain.Candle, error) {
	s.ohlcvCalls++
	if s.ohlcvErr != nil {
		return nil, s.ohlcvErr
	}
	return append([]domain.Candle(nil), s.candles...), nil
}

type stubCandleRepo struct {
	upserts int
	last    []domain.Candle
}

func (s *stubCandleRepo) UpsertCandles(ctx context.Context, candles []domain.Candle) error {
	s.upserts++
	s.last = candles
	return nil
}

func testCandles(n int) []domain.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, n)
	for i := range out {
		price := 100 + float64(i)
		out[i] = domain.Candle{
			Symbol:   "BTC/USDT",
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     price,
			High:     price + 1,
			Low:      price - 1,
			Close:    price,
			Volume:   10,
		}
	}
	return out
}

func newTestFeed(t *testing.T, p *stubProvider, repo CandleRepository) *Feed {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracer := trace.NewNoopTracerProvider().Tracer("feed-test")
	return New(tracer, p, rdb, repo, 15*time.Second, 60*time.Second)
}

func TestTickerCachesSecondRead(t *testing.T) {
	p := &stubProvider{ticker: &domain.Ticker{Symbol: "BTC/USDT", Price: 50000}}
	f := newTestFeed(t, p, nil)

	first, err := f.Ticker(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.Ticker(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.tickerCalls != 1 {
		t.Fatalf("expected a single provider call, got %d", p.tickerCalls)
	}
	if first.Price != 50000 || second.Price != 50000 {
		t.Fatalf("unexpected prices: %f %f", first.Price, second.Price)
	}
}

func TestTickerServesStaleOnProviderFailure(t *testing.T) {
	p := &stubProvider{ticker: &domain.Ticker{Symbol: "BTC/USDT", Price: 50000}}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracer := trace.NewNoopTracerProvider().Tracer("feed-test")
	f := New(tracer, p, rdb, nil, 15*time.Second, 60*time.Second)

	if _, err := f.Ticker(context.Background(), "BTC/USDT"); err != nil {
		t.Fatalf("seed fetch failed: %v", err)
	}

	// Expire the cache and break the provider.
	mr.FastForward(time.Minute)
	p.tickerErr = errors.New("rate limited")

	got, err := f.Ticker(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if !got.Stale {
		t.Fatal("expected staleness flag on fallback value")
	}
	if got.Price != 50000 {
		t.Fatalf("expected last good price, got %f", got.Price)
	}
}

func TestTickerTotalMissIsDataUnavailable(t *testing.T) {
	p := &stubProvider{tickerErr: errors.New("down")}
	f := newTestFeed(t, p, nil)

	_, err := f.Ticker(context.Background(), "BTC/USDT")
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestTickerRejectsUnsupportedSymbol(t *testing.T) {
	p := &stubProvider{ticker: &domain.Ticker{Price: 1}}
	f := newTestFeed(t, p, nil)

	if _, err := f.Ticker(context.Background(), "FAKE/USDT"); err == nil {
		t.Fatal("expected unsupported symbol error")
	}
	if p.tickerCalls != 0 {
		t.Fatal("expected no provider call for unsupported symbol")
	}
}

func TestOHLCVPersistsFetchedBars(t *testing.T) {
	p := &stubProvider{candles: testCandles(30)}
	repo := &stubCandleRepo{}
	f := newTestFeed(t, p, repo)

	bars, err := f.OHLCV(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 30 {
		t.Fatalf("expected 30 bars, got %d", len(bars))
	}
	if repo.upserts != 1 || len(repo.last) != 30 {
		t.Fatalf("expected one upsert of 30 bars, got %d of %d", repo.upserts, len(repo.last))
	}

	// Cached read does not hit provider or repo again.
	if _, err := f.OHLCV(context.Background(), "BTC/USDT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ohlcvCalls != 1 || repo.upserts != 1 {
		t.Fatalf("expected cached second read, got %d fetches %d upserts", p.ohlcvCalls, repo.upserts)
	}
}

func TestOHLCVServesStaleBarsOnFailure(t *testing.T) {
	p := &stubProvider{candles: testCandles(5)}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracer := trace.NewNoopTracerProvider().Tracer("feed-test")
	f := New(tracer, p, rdb, nil, 15*time.Second, 60*time.Second)

	if _, err := f.OHLCV(context.Background(), "BTC/USDT"); err != nil {
		t.Fatalf("seed fetch failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	p.ohlcvErr = errors.New("down")

	bars, err := f.OHLCV(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("expected stale bars, got error: %v", err)
	}
	if len(bars) != 5 {
		t.Fatalf("expected 5 stale bars, got %d", len(bars))
	}
}

func TestRSIAlignsWithBars(t *testing.T) {
	p := &stubProvider{candles: testCandles(40)}
	f := newTestFeed(t, p, nil)

	points, err := f.RSI(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 40 {
		t.Fatalf("expected 40 rsi points, got %d", len(points))
	}
	for i, pt := range points {
		if pt.RSI < 0 || pt.RSI > 100 {
			t.Fatalf("rsi out of bounds at %d: %f", i, pt.RSI)
		}
	}
	if !points[0].Time.Equal(testCandles(1)[0].OpenTime) {
		t.Fatal("expected rsi points aligned to bar times")
	}
}
