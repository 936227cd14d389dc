// Package ledger tracks one bot's balance, open exposure, and equity
// curve. A ledger is mutated only through ApplyFill and Reset.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"tradepulse/internal/domain"
)

// DefaultPositionFraction is the share of balance committed per trade
// when no override is configured.
const DefaultPositionFraction = 0.10

// FillResult reports what a fill attempt did to the ledger. Applied is
// false for the benign no-op cases (sell while flat, buy while already
// holding); Reason says why.
type FillResult struct {
	Applied   bool
	Direction domain.SignalDirection
	Symbol    string
	Price     float64
	Size      float64
	Cost      float64
	PnL       float64
	Reason    string
}

type Ledger struct {
	mu              sync.Mutex
	botID           string
	balance         float64
	startingCapital float64
	position        *domain.Position
	equity          []domain.EquityPoint
	fraction        float64
	live            bool
	now             func() time.Time
}

func New(botID string, startingCapital, fraction float64, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultPositionFraction
	}
	l := &Ledger{
		botID:           botID,
		balance:         startingCapital,
		startingCapital: startingCapital,
		fraction:        fraction,
		now:             now,
	}
	l.equity = []domain.EquityPoint{{Timestamp: now().UTC(), Balance: startingCapital}}
	return l
}

// NewFromSnapshot rebuilds a ledger from persisted state.
func NewFromSnapshot(snap domain.LedgerSnapshot, fraction float64, live bool, now func() time.Time) *Ledger {
	l := New(snap.BotID, snap.StartingCapital, fraction, now)
	l.balance = snap.Balance
	l.live = live
	if snap.Position != nil {
		pos := *snap.Position
		l.position = &pos
	}
	if len(snap.EquityCurve) > 0 {
		l.equity = append([]domain.EquityPoint(nil), snap.EquityCurve...)
	}
	return l
}

func (l *Ledger) SetLiveMode(live bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live = live
}

func (l *Ledger) IsLiveMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// ApplyFill applies a directional fill at the given price. Buying while
// flat opens a position sized by the configured balance fraction;
// selling while holding closes it and realizes P&L into the balance,
// appending one equity-curve point. The mismatched cases are no-ops the
// caller is expected to log as warnings, not errors: the tick loop may
// fire faster than positions change.
func (l *Ledger) ApplyFill(direction domain.SignalDirection, symbol string, price float64) FillResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price <= 0 {
		return FillResult{Direction: direction, Symbol: symbol, Price: price, Reason: "non-positive fill price"}
	}

	switch direction {
	case domain.DirectionBuy:
		if l.position != nil {
			return FillResult{Direction: direction, Symbol: symbol, Price: price,
				Reason: fmt.Sprintf("already holding %s, buy ignored", l.position.Symbol)}
		}
		cost := l.balance * l.fraction
		if cost <= 0 {
			return FillResult{Direction: direction, Symbol: symbol, Price: price, Reason: "no balance available"}
		}
		size := cost / price
		l.balance -= cost
		l.position = &domain.Position{
			Symbol:     symbol,
			EntryPrice: price,
			Size:       size,
			OpenedAt:   l.now().UTC(),
		}
		return FillResult{Applied: true, Direction: direction, Symbol: symbol, Price: price, Size: size, Cost: cost}

	case domain.DirectionSell:
		if l.position == nil {
			return FillResult{Direction: direction, Symbol: symbol, Price: price, Reason: "no open position, sell ignored"}
		}
		pos := *l.position
		proceeds := pos.Size * price
		pnl := (price - pos.EntryPrice) * pos.Size
		l.balance += proceeds
		l.position = nil
		l.appendEquityPoint()
		return FillResult{Applied: true, Direction: direction, Symbol: pos.Symbol, Price: price, Size: pos.Size, PnL: pnl}

	default:
		return FillResult{Direction: direction, Symbol: symbol, Price: price, Reason: "hold"}
	}
}

// IntendedSize reports the order size a fill in the given direction
// would target at the given price, or a reason why no order should be
// placed. Live execution plans its venue order from this before any
// network call.
func (l *Ledger) IntendedSize(direction domain.SignalDirection, price float64) (float64, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price <= 0 {
		return 0, "non-positive price"
	}
	switch direction {
	case domain.DirectionBuy:
		if l.position != nil {
			return 0, fmt.Sprintf("already holding %s, buy ignored", l.position.Symbol)
		}
		cost := l.balance * l.fraction
		if cost <= 0 {
			return 0, "no balance available"
		}
		return cost / price, ""
	case domain.DirectionSell:
		if l.position == nil {
			return 0, "no open position, sell ignored"
		}
		return l.position.Size, ""
	default:
		return 0, "hold"
	}
}

// ApplyExternalFill reconciles a fill reported by a live venue. Unlike
// ApplyFill it takes the venue's actual price and size, so partial
// fills shrink the open position instead of closing it.
func (l *Ledger) ApplyExternalFill(direction domain.SignalDirection, symbol string, price, size float64) FillResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price <= 0 || size <= 0 {
		return FillResult{Direction: direction, Symbol: symbol, Price: price, Reason: "empty fill"}
	}

	switch direction {
	case domain.DirectionBuy:
		if l.position != nil {
			return FillResult{Direction: direction, Symbol: symbol, Price: price,
				Reason: fmt.Sprintf("already holding %s, buy ignored", l.position.Symbol)}
		}
		cost := price * size
		l.balance -= cost
		l.position = &domain.Position{
			Symbol:     symbol,
			EntryPrice: price,
			Size:       size,
			OpenedAt:   l.now().UTC(),
		}
		return FillResult{Applied: true, Direction: direction, Symbol: symbol, Price: price, Size: size, Cost: cost}

	case domain.DirectionSell:
		if l.position == nil {
			return FillResult{Direction: direction, Symbol: symbol, Price: price, Reason: "no open position, sell ignored"}
		}
		pos := l.position
		closeSize := size
		if closeSize > pos.Size {
			closeSize = pos.Size
		}
		proceeds := closeSize * price
		pnl := (price - pos.EntryPrice) * closeSize
		l.balance += proceeds
		pos.Size -= closeSize
		if pos.Size <= 1e-12 {
			l.position = nil
			l.appendEquityPoint()
		}
		return FillResult{Applied: true, Direction: direction, Symbol: pos.Symbol, Price: price, Size: closeSize, PnL: pnl}

	default:
		return FillResult{Direction: direction, Symbol: symbol, Price: price, Reason: "hold"}
	}
}

// Reset replaces the balance with startingCapital, clears any open
// position, and truncates the equity curve to a single opening point.
// It is the sole sanctioned truncation path and only exists for paper
// accounts: a live-mode ledger always rejects it.
func (l *Ledger) Reset(startingCapital float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.live {
		return domain.ErrLiveModeReset
	}
	if startingCapital <= 0 {
		return fmt.Errorf("starting capital must be positive, got %f", startingCapital)
	}

	l.balance = startingCapital
	l.startingCapital = startingCapital
	l.position = nil
	l.equity = []domain.EquityPoint{{Timestamp: l.now().UTC(), Balance: startingCapital}}
	return nil
}

// Snapshot returns a consistent copy of the ledger state.
func (l *Ledger) Snapshot() domain.LedgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := domain.LedgerSnapshot{
		BotID:           l.botID,
		Balance:         l.balance,
		StartingCapital: l.startingCapital,
		EquityCurve:     append([]domain.EquityPoint(nil), l.equity...),
	}
	if l.position != nil {
		pos := *l.position
		snap.Position = &pos
	}
	return snap
}

func (l *Ledger) appendEquityPoint() {
	ts := l.now().UTC()
	// Equity timestamps never run backwards, even with a coarse clock.
	if n := len(l.equity); n > 0 && ts.Before(l.equity[n-1].Timestamp) {
		ts = l.equity[n-1].Timestamp
	}
	l.equity = append(l.equity, domain.EquityPoint{Timestamp: ts, Balance: l.balance})
}
