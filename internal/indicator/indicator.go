// Package indicator holds the pure technical-indicator math. Functions
// here do no I/O and are deterministic: identical input always yields
// identical output, which backtests rely on.
package indicator

import (
	"fmt"

	"tradepulse/internal/domain"
)

// neutralRSI is the value reported when no price change has been
// observed yet (a single-element series). 50 is the midpoint of the
// oscillator and reads as "no momentum either way".
const neutralRSI = 50.0

// EMA computes an exponential moving average series the same length as
// the input. The series is seeded from closes[0] rather than an average
// of the first period elements; historical backtests depend on that
// exact recurrence, so it must not change.
func EMA(closes []float64, period int) ([]float64, error) {
	if len(closes) == 0 {
		return nil, domain.ErrInsufficientData
	}
	if period <= 0 {
		return nil, fmt.Errorf("ema period must be positive, got %d", period)
	}

	k := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(closes))
	out[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = closes[i]*k + out[i-1]*(1-k)
	}
	return out, nil
}

// RSI computes a relative strength index series the same length as the
// input, bounded to [0,100]. Values before a full period of history are
// computed from whatever deltas exist instead of being withheld; they
// are low-confidence but keep consumer indexing trivial. A series with
// no observable delta reports the neutral value 50.
func RSI(closes []float64, period int) ([]float64, error) {
	if len(closes) == 0 {
		return nil, domain.ErrInsufficientData
	}
	if period <= 0 {
		return nil, fmt.Errorf("rsi period must be positive, got %d", period)
	}

	out := make([]float64, len(closes))
	out[0] = neutralRSI

	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if i <= period {
			// Cumulative average until a full period of deltas exists.
			n := float64(i)
			avgGain = (avgGain*(n-1) + gain) / n
			avgLoss = (avgLoss*(n-1) + loss) / n
		} else {
			// Wilder smoothing.
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}

		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return neutralRSI
		}
		return 100
	}
	rs := avgGain / avgLoss
	v := 100 - (100 / (1 + rs))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
