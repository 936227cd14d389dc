// Package executor applies trading signals to an account: paper fills
// against the in-process ledger, live orders against a real venue. The
// engine selects the implementation per bot via its live-mode flag and
// never branches on mode anywhere else.
package executor

import (
	"context"

	"tradepulse/internal/domain"
	"tradepulse/internal/ledger"
)

type Executor interface {
	Execute(ctx context.Context, bot domain.Bot, sig domain.Signal, price float64) (ledger.FillResult, error)
}

// OrderRequest is the abstract place-order contract a live venue must
// satisfy.
type OrderRequest struct {
	Symbol    string
	Direction domain.SignalDirection
	Size      float64
}

// OrderFill is the venue's report of what actually executed. Size may
// be smaller than requested on a partial fill.
type OrderFill struct {
	OrderID string
	Price   float64
	Size    float64
}

type ExchangeClient interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderFill, error)
}

// Paper fills synchronously against the ledger at the current ticker
// price. It never fails; mismatched fills come back as no-op results.
type Paper struct {
	led *ledger.Ledger
}

func NewPaper(led *ledger.Ledger) *Paper {
	return &Paper{led: led}
}

func (e *Paper) Execute(ctx context.Context, bot domain.Bot, sig domain.Signal, price float64) (ledger.FillResult, error) {
	if sig.Direction == domain.DirectionHold {
		return ledger.FillResult{Direction: sig.Direction, Symbol: sig.Symbol, Reason: "hold"}, nil
	}
	return e.led.ApplyFill(sig.Direction, sig.Symbol, price), nil
}

// Live forwards orders to a real exchange and reconciles the reported
// fill into the ledger. A failed order is retried once; a second
// failure surfaces as ExecutionError, which the engine treats as a
// stop-the-bot condition rather than retrying against a misbehaving
// venue.
type Live struct {
	client ExchangeClient
	led    *ledger.Ledger
}

func NewLive(client ExchangeClient, led *ledger.Ledger) *Live {
	return &Live{client: client, led: led}
}

func (e *Live) Execute(ctx context.Context, bot domain.Bot, sig domain.Signal, price float64) (ledger.FillResult, error) {
	if sig.Direction == domain.DirectionHold {
		return ledger.FillResult{Direction: sig.Direction, Symbol: sig.Symbol, Reason: "hold"}, nil
	}

	size, reason := e.led.IntendedSize(sig.Direction, price)
	if size <= 0 {
		return ledger.FillResult{Direction: sig.Direction, Symbol: sig.Symbol, Price: price, Reason: reason}, nil
	}

	req := OrderRequest{Symbol: sig.Symbol, Direction: sig.Direction, Size: size}
	fill, err := e.client.PlaceOrder(ctx, req)
	if err != nil {
		fill, err = e.client.PlaceOrder(ctx, req)
	}
	if err != nil {
		return ledger.FillResult{}, &domain.ExecutionError{Op: "place-order", Err: err}
	}
	if fill.Size <= 0 {
		return ledger.FillResult{Direction: sig.Direction, Symbol: sig.Symbol, Price: fill.Price, Reason: "venue reported empty fill"}, nil
	}

	return e.led.ApplyExternalFill(sig.Direction, sig.Symbol, fill.Price, fill.Size), nil
}
