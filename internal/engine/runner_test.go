package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradepulse/internal/domain"
	"tradepulse/internal/executor"
	"tradepulse/internal/ledger"
)

type memorySink struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

func (s *memorySink) Append(ctx context.Context, botID string, level domain.LogLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, domain.LogEntry{
		BotID:     botID,
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
	})
}

func (s *memorySink) byLevel(level domain.LogLevel) []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LogEntry
	for _, e := range s.entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

type gatedFeed struct {
	mu       sync.Mutex
	symbols  []string
	started  chan struct{}
	release  chan struct{}
	err      error
	lastBars []domain.Candle
}

func (f *gatedFeed) Ticker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	f.mu.Lock()
	f.symbols = append(f.symbols, symbol)
	started := f.started
	release := f.release
	err := f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &domain.Ticker{Symbol: symbol, Price: 100}, nil
}

func (f *gatedFeed) OHLCV(ctx context.Context, symbol string) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.lastBars != nil {
		return f.lastBars, nil
	}
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Candle, 30)
	for i := range bars {
		bars[i] = domain.Candle{Symbol: symbol, OpenTime: base.Add(time.Duration(i) * time.Minute), Close: 100}
	}
	return bars, nil
}

func (f *gatedFeed) fetchedSymbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.symbols...)
}

// scriptedEvaluator replays a fixed direction sequence, then holds.
type scriptedEvaluator struct {
	mu   sync.Mutex
	dirs []domain.SignalDirection
}

func (e *scriptedEvaluator) Evaluate(bars []domain.Candle, params domain.StrategyParams) domain.Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	dir := domain.DirectionHold
	if len(e.dirs) > 0 {
		dir = e.dirs[0]
		e.dirs = e.dirs[1:]
	}
	symbol := ""
	if len(bars) > 0 {
		symbol = bars[len(bars)-1].Symbol
	}
	return domain.Signal{Symbol: symbol, Direction: dir, Timestamp: time.Now().UTC(), Basis: "scripted"}
}

type failingExecutor struct{ calls int }

func (e *failingExecutor) Execute(ctx context.Context, bot domain.Bot, sig domain.Signal, price float64) (ledger.FillResult, error) {
	e.calls++
	return ledger.FillResult{}, &domain.ExecutionError{Op: "place-order", Err: errors.New("venue down")}
}

func newTestRunner(feed MarketFeed, eval SignalEvaluator, live executor.Executor, liveMode bool) (*Runner, *ledger.Ledger, *memorySink) {
	led := ledger.New("bot-1", 10000, 0.10, nil)
	led.SetLiveMode(liveMode)
	sink := &memorySink{}
	bot := domain.Bot{
		ID:         "bot-1",
		Symbol:     "BTC/USDT",
		Watchlist:  []string{"BTC/USDT", "ETH/USDT"},
		IsLiveMode: liveMode,
		Params:     domain.DefaultStrategyParams(),
		State:      domain.StateIdle,
	}
	deps := Deps{
		Feed:      feed,
		Evaluator: eval,
		Ledger:    led,
		Paper:     executor.NewPaper(led),
		Live:      live,
		Sink:      sink,
	}
	r := NewRunner(bot, deps, Config{TickInterval: 20 * time.Millisecond, FetchTimeout: time.Second})
	return r, led, sink
}

func TestStartStopTransitions(t *testing.T) {
	feed := &gatedFeed{}
	r, _, _ := newTestRunner(feed, &scriptedEvaluator{}, nil, false)
	ctx := context.Background()

	if r.State() != domain.StateIdle {
		t.Fatalf("expected idle, got %s", r.State())
	}
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if r.State() != domain.StateRunning || !r.Bot().IsRunning {
		t.Fatalf("expected running, got %s", r.State())
	}

	r.Stop(ctx)
	if r.State() != domain.StateStopped || r.Bot().IsRunning {
		t.Fatalf("expected stopped, got %s", r.State())
	}

	// Stopped is resumable.
	if err := r.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if r.State() != domain.StateRunning {
		t.Fatalf("expected running after restart, got %s", r.State())
	}
	r.Stop(ctx)
}

func TestKillDuringFetchDiscardsFill(t *testing.T) {
	feed := &gatedFeed{
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	eval := &scriptedEvaluator{dirs: []domain.SignalDirection{domain.DirectionBuy}}
	r, led, sink := newTestRunner(feed, eval, nil, false)
	ctx := context.Background()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Wait for the tick to enter the (artificially delayed) fetch, then
	// land the kill mid-fetch.
	<-feed.started
	r.Kill(ctx)
	close(feed.release)

	// Give the abandoned tick time to reach its mutation phase.
	time.Sleep(50 * time.Millisecond)

	snap := led.Snapshot()
	if snap.Position != nil {
		t.Fatal("kill landed mid-tick but a fill was still applied")
	}
	if snap.Balance != 10000 {
		t.Fatalf("expected untouched balance, got %f", snap.Balance)
	}
	if r.State() != domain.StateKilled || r.Bot().IsRunning {
		t.Fatalf("expected killed state, got %s", r.State())
	}
	if len(sink.byLevel(domain.LevelError)) == 0 {
		t.Fatal("expected kill to log at error level")
	}

	// A killed bot schedules no further ticks.
	fetchesAtKill := len(feed.fetchedSymbols())
	time.Sleep(80 * time.Millisecond)
	if got := len(feed.fetchedSymbols()); got != fetchesAtKill {
		t.Fatalf("expected no ticks after kill, fetch count went %d -> %d", fetchesAtKill, got)
	}
}

func TestTickAppliesPaperRoundTrip(t *testing.T) {
	feed := &gatedFeed{}
	eval := &scriptedEvaluator{dirs: []domain.SignalDirection{domain.DirectionBuy, domain.DirectionSell}}
	r, led, sink := newTestRunner(feed, eval, nil, false)
	ctx := context.Background()

	// Drive ticks directly for determinism.
	r.mu.Lock()
	r.state = domain.StateRunning
	r.mu.Unlock()

	r.tick(ctx)
	if led.Snapshot().Position == nil {
		t.Fatal("expected open position after buy tick")
	}

	r.tick(ctx)
	snap := led.Snapshot()
	if snap.Position != nil {
		t.Fatal("expected flat position after sell tick")
	}
	if len(sink.byLevel(domain.LevelSuccess)) != 2 {
		t.Fatalf("expected 2 success entries, got %d", len(sink.byLevel(domain.LevelSuccess)))
	}

	// Third tick holds and logs info.
	r.tick(ctx)
	if len(sink.byLevel(domain.LevelInfo)) == 0 {
		t.Fatal("expected hold tick to log at info level")
	}
}

func TestSellSignalWhileFlatLogsWarning(t *testing.T) {
	feed := &gatedFeed{}
	eval := &scriptedEvaluator{dirs: []domain.SignalDirection{domain.DirectionSell}}
	r, led, sink := newTestRunner(feed, eval, nil, false)

	r.mu.Lock()
	r.state = domain.StateRunning
	r.mu.Unlock()

	r.tick(context.Background())
	if led.Snapshot().Balance != 10000 {
		t.Fatal("expected balance unchanged by flat sell")
	}
	if len(sink.byLevel(domain.LevelWarn)) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(sink.byLevel(domain.LevelWarn)))
	}
}

func TestLiveExecutionFailureForcesStop(t *testing.T) {
	feed := &gatedFeed{}
	eval := &scriptedEvaluator{dirs: []domain.SignalDirection{domain.DirectionBuy}}
	liveExec := &failingExecutor{}
	r, _, sink := newTestRunner(feed, eval, liveExec, true)
	ctx := context.Background()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	deadline := time.After(time.Second)
	for r.State() != domain.StateStopped {
		select {
		case <-deadline:
			t.Fatalf("bot never stopped after live failure, state=%s", r.State())
		case <-time.After(10 * time.Millisecond):
		}
	}
	if liveExec.calls != 1 {
		t.Fatalf("expected a single execution attempt, got %d", liveExec.calls)
	}
	if len(sink.byLevel(domain.LevelError)) == 0 {
		t.Fatal("expected live failure to log at error level")
	}
}

func TestFeedFailureHoldsAndKeepsRunning(t *testing.T) {
	feed := &gatedFeed{err: domain.ErrDataUnavailable}
	r, led, sink := newTestRunner(feed, &scriptedEvaluator{}, nil, false)

	r.mu.Lock()
	r.state = domain.StateRunning
	r.mu.Unlock()

	r.tick(context.Background())
	if led.Snapshot().Balance != 10000 {
		t.Fatal("expected no ledger mutation on feed failure")
	}
	if len(sink.byLevel(domain.LevelWarn)) != 1 {
		t.Fatalf("expected one warning, got %d", len(sink.byLevel(domain.LevelWarn)))
	}
}

func TestSymbolUpdateAppliesOnNextTick(t *testing.T) {
	feed := &gatedFeed{}
	r, _, _ := newTestRunner(feed, &scriptedEvaluator{}, nil, false)
	ctx := context.Background()

	r.mu.Lock()
	r.state = domain.StateRunning
	r.mu.Unlock()

	r.tick(ctx)

	eth := "ETH/USDT"
	if err := r.UpdateConfig(ctx, ConfigPatch{Symbol: &eth}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	r.tick(ctx)

	symbols := feed.fetchedSymbols()
	if len(symbols) != 2 || symbols[0] != "BTC/USDT" || symbols[1] != "ETH/USDT" {
		t.Fatalf("expected symbol change on next tick only, got %v", symbols)
	}
}

func TestWatchlistUpdateDoesNotTouchActiveSymbol(t *testing.T) {
	feed := &gatedFeed{}
	r, _, _ := newTestRunner(feed, &scriptedEvaluator{}, nil, false)
	ctx := context.Background()

	if err := r.UpdateConfig(ctx, ConfigPatch{Watchlist: []string{"SOL/USDT", "SOL/USDT", "ADA/USDT"}}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	bot := r.Bot()
	if bot.Symbol != "BTC/USDT" {
		t.Fatalf("watchlist update changed active symbol to %s", bot.Symbol)
	}
	if len(bot.Watchlist) != 2 {
		t.Fatalf("expected deduplicated watchlist of 2, got %v", bot.Watchlist)
	}
}

func TestUpdateConfigRejectsUnknownSymbol(t *testing.T) {
	r, _, _ := newTestRunner(&gatedFeed{}, &scriptedEvaluator{}, nil, false)

	bad := "FAKE/USDT"
	if err := r.UpdateConfig(context.Background(), ConfigPatch{Symbol: &bad}); err == nil {
		t.Fatal("expected unsupported symbol error")
	}
	if err := r.UpdateConfig(context.Background(), ConfigPatch{Watchlist: []string{"FAKE/USDT"}}); err == nil {
		t.Fatal("expected unsupported watchlist symbol error")
	}
}

func TestResetPaperThroughRunner(t *testing.T) {
	r, led, sink := newTestRunner(&gatedFeed{}, &scriptedEvaluator{}, nil, false)
	ctx := context.Background()

	if err := r.ResetPaper(ctx, 5000); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if led.Snapshot().Balance != 5000 {
		t.Fatal("expected reset balance")
	}
	if len(sink.byLevel(domain.LevelSuccess)) != 1 {
		t.Fatal("expected audited reset log entry")
	}

	led.SetLiveMode(true)
	if err := r.ResetPaper(ctx, 5000); !errors.Is(err, domain.ErrLiveModeReset) {
		t.Fatalf("expected ErrLiveModeReset, got %v", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	r, _, _ := newTestRunner(&gatedFeed{}, &scriptedEvaluator{}, nil, false)
	reg.Add(r)

	got, err := reg.Get("bot-1")
	if err != nil || got != r {
		t.Fatalf("expected runner lookup to succeed, got %v", err)
	}
	if _, err := reg.Get("missing"); !errors.Is(err, domain.ErrBotNotFound) {
		t.Fatalf("expected ErrBotNotFound, got %v", err)
	}
}
