package service

import (
	"context"
	"testing"
	"time"

	"tradepulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type stubMarketReader struct {
	lastSymbol string
}

func (s *stubMarketReader) Ticker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	s.lastSymbol = symbol
	return &domain.Ticker{Symbol: symbol, Price: 50000}, nil
}

func (s *stubMarketReader) OHLCV(ctx context.Context, symbol string) ([]domain.Candle, error) {
	s.lastSymbol = symbol
	return []domain.Candle{{Symbol: symbol}}, nil
}

func (s *stubMarketReader) RSI(ctx context.Context, symbol string) ([]domain.RSIPoint, error) {
	s.lastSymbol = symbol
	return []domain.RSIPoint{{RSI: 50}}, nil
}

func newMarketService(reader *stubMarketReader) *MarketService {
	return NewMarketService(trace.NewNoopTracerProvider().Tracer("service-test"), reader)
}

func TestTickerNormalizesDashedSymbol(t *testing.T) {
	reader := &stubMarketReader{}
	svc := newMarketService(reader)

	tk, err := svc.Ticker(context.Background(), "btc-usdt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.lastSymbol != "BTC/USDT" || tk.Price != 50000 {
		t.Fatalf("unexpected symbol %q", reader.lastSymbol)
	}
}

func TestMarketRejectsUnknownSymbol(t *testing.T) {
	svc := newMarketService(&stubMarketReader{})

	if _, err := svc.Ticker(context.Background(), "FAKE-USDT"); err == nil {
		t.Fatal("expected unsupported symbol error")
	}
	if _, err := svc.OHLCV(context.Background(), "FAKE-USDT"); err == nil {
		t.Fatal("expected unsupported symbol error")
	}
	if _, err := svc.RSI(context.Background(), "FAKE-USDT"); err == nil {
		t.Fatal("expected unsupported symbol error")
	}
}

func TestSymbolsReturnsCopy(t *testing.T) {
	svc := newMarketService(&stubMarketReader{})

	symbols := svc.Symbols()
	if len(symbols) != len(domain.SupportedSymbols) {
		t.Fatalf("expected %d symbols", len(domain.SupportedSymbols))
	}
	symbols[0] = "mutated"
	if domain.SupportedSymbols[0] == "mutated" {
		t.Fatal("expected a defensive copy")
	}
}

func TestLogSinkFansOutToSubscribers(t *testing.T) {
	sink := NewLogSink(nil)

	ch, cancel := sink.Subscribe("bot-1")
	defer cancel()

	sink.Append(context.Background(), "bot-1", domain.LevelInfo, "bot started")
	sink.Append(context.Background(), "bot-2", domain.LevelInfo, "other bot")

	select {
	case entry := <-ch:
		if entry.BotID != "bot-1" || entry.Level != domain.LevelInfo {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a streamed entry")
	}

	select {
	case entry := <-ch:
		t.Fatalf("expected no cross-bot delivery, got %+v", entry)
	default:
	}

	cancel()
	sink.Append(context.Background(), "bot-1", domain.LevelInfo, "after detach")
	select {
	case e, ok := <-ch:
		if ok && e.Message == "after detach" {
			t.Fatal("expected no delivery after unsubscribe")
		}
	default:
	}
}
