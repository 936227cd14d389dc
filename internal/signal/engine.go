package signal

import (
	"fmt"
	"sort"
	"time"

	"tradepulse/internal/domain"
	"tradepulse/internal/indicator"
)

// Engine turns OHLCV history into a directional decision. It is pure
// given (bars, params): no hidden state, reproducible for backtesting.
type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Evaluate combines an EMA fast/slow crossover with an RSI gate on the
// latest bar. Sell conditions take precedence over buy: capital
// preservation over opportunity.
func (e *Engine) Evaluate(bars []domain.Candle, params domain.StrategyParams) domain.Signal {
	normalized := normalizeBars(bars)
	if len(normalized) < 2 {
		return e.hold(normalized, "insufficient history")
	}
	if err := params.Validate(); err != nil {
		return e.hold(normalized, fmt.Sprintf("invalid params: %v", err))
	}

	closes := extractCloses(normalized)
	fast, err := indicator.EMA(closes, params.FastPeriod)
	if err != nil {
		return e.hold(normalized, fmt.Sprintf("ema(%d): %v", params.FastPeriod, err))
	}
	slow, err := indicator.EMA(closes, params.SlowPeriod)
	if err != nil {
		return e.hold(normalized, fmt.Sprintf("ema(%d): %v", params.SlowPeriod, err))
	}
	rsi, err := indicator.RSI(closes, rsiPeriod)
	if err != nil {
		return e.hold(normalized, fmt.Sprintf("rsi: %v", err))
	}

	last := len(closes) - 1
	prevDelta := fast[last-1] - slow[last-1]
	currDelta := fast[last] - slow[last]
	currRSI := rsi[last]

	crossUp := prevDelta <= 0 && currDelta > 0
	crossDown := prevDelta >= 0 && currDelta < 0

	latest := normalized[len(normalized)-1]

	// Risk-off override: overbought RSI sells regardless of crossover
	// state, and always beats a simultaneous buy condition.
	if crossDown || currRSI > domain.RSIOverbought {
		basis := fmt.Sprintf("bearish ema crossover (delta %.4f)", currDelta)
		if !crossDown {
			basis = fmt.Sprintf("rsi %.2f above overbought %d", currRSI, domain.RSIOverbought)
		}
		return e.newSignal(latest, domain.DirectionSell, basis)
	}

	// Momentum confirmation: RSI must sit between the configured
	// baseline and the overbought bound for a crossover to buy.
	if crossUp && currRSI >= params.RSIThreshold && currRSI <= domain.RSIOverbought {
		return e.newSignal(latest, domain.DirectionBuy,
			fmt.Sprintf("bullish ema crossover (delta %.4f, rsi %.2f)", currDelta, currRSI))
	}
	if crossUp {
		return e.newSignal(latest, domain.DirectionHold,
			fmt.Sprintf("crossover rejected by rsi gate (rsi %.2f, threshold %.0f)", currRSI, params.RSIThreshold))
	}

	return e.newSignal(latest, domain.DirectionHold,
		fmt.Sprintf("no crossover (delta %.4f, rsi %.2f)", currDelta, currRSI))
}

const rsiPeriod = 14

func (e *Engine) hold(bars []domain.Candle, basis string) domain.Signal {
	var latest domain.Candle
	if len(bars) > 0 {
		latest = bars[len(bars)-1]
	}
	return e.newSignal(latest, domain.DirectionHold, basis)
}

func (e *Engine) newSignal(bar domain.Candle, direction domain.SignalDirection, basis string) domain.Signal {
	ts := bar.OpenTime.UTC()
	if ts.IsZero() {
		ts = e.now().UTC()
	}
	return domain.Signal{
		Symbol:    bar.Symbol,
		Direction: direction,
		Timestamp: ts,
		Basis:     basis,
	}
}

func normalizeBars(in []domain.Candle) []domain.Candle {
	out := make([]domain.Candle, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out
}

func extractCloses(bars []domain.Candle) []float64 {
	values := make([]float64, len(bars))
	for i := range bars {
		values[i] = bars[i].Close
	}
	return values
}
