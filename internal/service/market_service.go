package service

import (
	"context"
	"fmt"
	"strings"

	"tradepulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// MarketReader is the cached market data surface.
type MarketReader interface {
	Ticker(ctx context.Context, symbol string) (*domain.Ticker, error)
	OHLCV(ctx context.Context, symbol string) ([]domain.Candle, error)
	RSI(ctx context.Context, symbol string) ([]domain.RSIPoint, error)
}

type MarketService struct {
	tracer trace.Tracer
	feed   MarketReader
}

func NewMarketService(tracer trace.Tracer, feed MarketReader) *MarketService {
	return &MarketService{tracer: tracer, feed: feed}
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	// Path parameters arrive with the slash URL-encoded or dashed.
	symbol = strings.ReplaceAll(symbol, "-", "/")
	if !domain.IsSupportedSymbol(symbol) {
		return "", fmt.Errorf("unsupported symbol: %s", symbol)
	}
	return symbol, nil
}

func (s *MarketService) Ticker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.ticker")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.feed.Ticker(ctx, symbol)
}

func (s *MarketService) OHLCV(ctx context.Context, symbol string) ([]domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.ohlcv")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.feed.OHLCV(ctx, symbol)
}

func (s *MarketService) RSI(ctx context.Context, symbol string) ([]domain.RSIPoint, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.rsi")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.feed.RSI(ctx, symbol)
}

func (s *MarketService) Symbols() []string {
	return append([]string(nil), domain.SupportedSymbols...)
}
