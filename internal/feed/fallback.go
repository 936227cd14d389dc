package feed

import (
	"sync"

	"tradepulse/internal/domain"
)

// fallbackStore keeps the last good value per symbol in process memory,
// independent of Redis, so a brief provider outage degrades to stale
// data rather than an error.
type fallbackStore struct {
	mu      sync.RWMutex
	tickers   map[string]domain.Ticker
	candleMap map[string][]domain.Candle
}

func newFallbackStore() *fallbackStore {
	return &fallbackStore{
		tickers:   make(map[string]domain.Ticker),
		candleMap: make(map[string][]domain.Candle),
	}
}

func (s *fallbackStore) ticker(symbol string) (domain.Ticker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickers[symbol]
	return t, ok
}

func (s *fallbackStore) setTicker(symbol string, t domain.Ticker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickers[symbol] = t
}

func (s *fallbackStore) candles(symbol string) ([]domain.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candleMap[symbol]
	if !ok {
		return nil, false
	}
	return append([]domain.Candle(nil), c...), true
}

func (s *fallbackStore) setCandles(symbol string, c []domain.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candleMap[symbol] = append([]domain.Candle(nil), c...)
}
