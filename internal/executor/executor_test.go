package executor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"tradepulse/internal/domain"
	"tradepulse/internal/ledger"
)

func testLedger() *ledger.Ledger {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	return ledger.New("bot-1", 10000, 0.10, func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Second)
	})
}

func testBot(live bool) domain.Bot {
	return domain.Bot{ID: "bot-1", Symbol: "BTC/USDT", IsLiveMode: live, Params: domain.DefaultStrategyParams()}
}

func sig(direction domain.SignalDirection) domain.Signal {
	return domain.Signal{Symbol: "BTC/USDT", Direction: direction, Timestamp: time.Now().UTC()}
}

func TestPaperHoldIsNoOp(t *testing.T) {
	led := testLedger()
	e := NewPaper(led)

	res, err := e.Execute(context.Background(), testBot(false), sig(domain.DirectionHold), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Applied {
		t.Fatal("expected hold to apply nothing")
	}
	if led.Snapshot().Balance != 10000 {
		t.Fatal("expected balance untouched by hold")
	}
}

func TestPaperBuyFillsAtTickerPrice(t *testing.T) {
	led := testLedger()
	e := NewPaper(led)

	res, err := e.Execute(context.Background(), testBot(false), sig(domain.DirectionBuy), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Applied || res.Price != 200 {
		t.Fatalf("expected applied fill at 200, got %+v", res)
	}
	snap := led.Snapshot()
	if snap.Position == nil || math.Abs(snap.Position.Size-5) > 1e-9 {
		t.Fatalf("expected position of size 5, got %+v", snap.Position)
	}
}

type stubExchange struct {
	fills    []OrderFill
	errs     []error
	calls    int
	lastReq  OrderRequest
	requests []OrderRequest
}

func (s *stubExchange) PlaceOrder(ctx context.Context, req OrderRequest) (OrderFill, error) {
	s.lastReq = req
	s.requests = append(s.requests, req)
	idx := s.calls
	s.calls++
	var fill OrderFill
	var err error
	if idx < len(s.fills) {
		fill = s.fills[idx]
	}
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	return fill, err
}

func TestLiveBuyReconcilesFill(t *testing.T) {
	led := testLedger()
	ex := &stubExchange{fills: []OrderFill{{OrderID: "1", Price: 101, Size: 9.9}}}
	e := NewLive(ex, led)

	res, err := e.Execute(context.Background(), testBot(true), sig(domain.DirectionBuy), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Applied || res.Price != 101 {
		t.Fatalf("expected fill reconciled at venue price, got %+v", res)
	}
	// Requested size planned from the pre-trade balance at signal price.
	if math.Abs(ex.lastReq.Size-10) > 1e-9 {
		t.Fatalf("expected requested size 10, got %f", ex.lastReq.Size)
	}
	if led.Snapshot().Position == nil {
		t.Fatal("expected open position after live buy")
	}
}

func TestLiveRetriesOnceThenReportsExecutionError(t *testing.T) {
	led := testLedger()
	venueErr := errors.New("venue down")
	ex := &stubExchange{errs: []error{venueErr, venueErr}}
	e := NewLive(ex, led)

	_, err := e.Execute(context.Background(), testBot(true), sig(domain.DirectionBuy), 100)
	var execErr *domain.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if ex.calls != 2 {
		t.Fatalf("expected exactly one retry (2 calls), got %d", ex.calls)
	}
	if led.Snapshot().Balance != 10000 {
		t.Fatal("expected ledger untouched by failed order")
	}
}

func TestLiveSecondAttemptSucceeds(t *testing.T) {
	led := testLedger()
	ex := &stubExchange{
		errs:  []error{errors.New("transient"), nil},
		fills: []OrderFill{{}, {OrderID: "2", Price: 100, Size: 10}},
	}
	e := NewLive(ex, led)

	res, err := e.Execute(context.Background(), testBot(true), sig(domain.DirectionBuy), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Applied {
		t.Fatalf("expected applied fill after retry, got %+v", res)
	}
}

func TestLivePartialFillLeavesPositionOpen(t *testing.T) {
	led := testLedger()
	buyEx := &stubExchange{fills: []OrderFill{{Price: 100, Size: 10}}}
	if _, err := NewLive(buyEx, led).Execute(context.Background(), testBot(true), sig(domain.DirectionBuy), 100); err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	// Venue only fills 4 of the requested 10 on the way out.
	sellEx := &stubExchange{fills: []OrderFill{{Price: 110, Size: 4}}}
	res, err := NewLive(sellEx, led).Execute(context.Background(), testBot(true), sig(domain.DirectionSell), 110)
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if !res.Applied || math.Abs(res.Size-4) > 1e-9 {
		t.Fatalf("expected partial fill of 4, got %+v", res)
	}

	snap := led.Snapshot()
	if snap.Position == nil || math.Abs(snap.Position.Size-6) > 1e-9 {
		t.Fatalf("expected remaining position of 6, got %+v", snap.Position)
	}
}

func TestLiveSellWhileFlatSkipsVenue(t *testing.T) {
	led := testLedger()
	ex := &stubExchange{}
	e := NewLive(ex, led)

	res, err := e.Execute(context.Background(), testBot(true), sig(domain.DirectionSell), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Applied || ex.calls != 0 {
		t.Fatalf("expected no venue call for flat sell, got %d calls", ex.calls)
	}
}
