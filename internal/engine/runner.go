// Package engine drives the per-bot poll-signal-execute cycle. Each bot
// owns one Runner; runners never share ledger or lifecycle state. A
// registry keyed by bot id holds them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"tradepulse/internal/domain"
	"tradepulse/internal/executor"
	"tradepulse/internal/ledger"
)

type MarketFeed interface {
	Ticker(ctx context.Context, symbol string) (*domain.Ticker, error)
	OHLCV(ctx context.Context, symbol string) ([]domain.Candle, error)
}

type SignalEvaluator interface {
	Evaluate(bars []domain.Candle, params domain.StrategyParams) domain.Signal
}

// EventSink receives the structured per-bot event stream. Every caught
// error inside the engine produces exactly one entry.
type EventSink interface {
	Append(ctx context.Context, botID string, level domain.LogLevel, message string)
}

// StateStore persists bot and ledger state after mutations. All calls
// are best-effort from the engine's point of view: a failed save is
// logged, never fatal to the tick loop.
type StateStore interface {
	SaveBot(ctx context.Context, bot domain.Bot) error
	SaveLedger(ctx context.Context, snap domain.LedgerSnapshot) error
}

// Notifier pushes out-of-band alerts for fills and kills.
type Notifier interface {
	NotifyFill(bot domain.Bot, res ledger.FillResult)
	NotifyKill(bot domain.Bot)
}

type Config struct {
	TickInterval time.Duration
	FetchTimeout time.Duration
}

type Deps struct {
	Feed      MarketFeed
	Evaluator SignalEvaluator
	Ledger    *ledger.Ledger
	Paper     executor.Executor
	Live      executor.Executor
	Sink      EventSink
	Store     StateStore
	Alerts    Notifier
}

// Runner is the lifecycle state machine for one bot: Idle → Running →
// Stopped/Killed. Config fields are read as a snapshot at the top of
// each tick; commands mutate them concurrently under the same lock the
// tick's mutation phase takes.
type Runner struct {
	deps Deps
	cfg  Config

	mu    sync.Mutex
	bot   domain.Bot
	state domain.BotState

	// killRequested is checked at the top of the mutation phase so an
	// in-flight tick that has already fetched and decided cannot apply
	// its effect after a kill lands.
	killRequested atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(bot domain.Bot, deps Deps, cfg Config) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 15 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if bot.State == "" {
		bot.State = domain.StateIdle
	}
	return &Runner{
		deps:  deps,
		cfg:   cfg,
		bot:   bot,
		state: bot.State,
	}
}

// Bot returns a consistent snapshot of the bot's configuration.
func (r *Runner) Bot() domain.Bot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Runner) State() domain.BotState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) Ledger() *ledger.Ledger { return r.deps.Ledger }

// Start transitions Idle, Stopped, or Killed into Running and begins
// the tick loop. Restarting a killed bot takes this same path.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state == domain.StateRunning {
		r.mu.Unlock()
		return nil
	}

	wasKilled := r.state == domain.StateKilled
	r.killRequested.Store(false)
	r.state = domain.StateRunning
	r.bot.IsRunning = true
	bot := r.snapshotLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	if wasKilled {
		r.emit(ctx, domain.LevelWarn, "bot restarted after kill")
	} else {
		r.emit(ctx, domain.LevelInfo, fmt.Sprintf("bot started on %s", bot.Symbol))
	}
	r.saveBot(ctx, bot)

	go r.loop(loopCtx, done)
	return nil
}

// Stop halts scheduling after the in-flight tick finishes or is
// abandoned. The ledger is not touched.
func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	if r.state != domain.StateRunning {
		r.mu.Unlock()
		return
	}
	r.state = domain.StateStopped
	r.bot.IsRunning = false
	bot := r.snapshotLocked()
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	r.emit(ctx, domain.LevelInfo, "bot stopped")
	r.saveBot(ctx, bot)
}

// Kill is the hard circuit breaker: it takes effect before the next
// tick regardless of a tick in progress, and an in-flight tick that has
// already decided will discard its effect.
func (r *Runner) Kill(ctx context.Context) {
	r.killRequested.Store(true)

	r.mu.Lock()
	if r.state == domain.StateKilled {
		r.mu.Unlock()
		return
	}
	r.state = domain.StateKilled
	r.bot.IsRunning = false
	bot := r.snapshotLocked()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	r.emit(ctx, domain.LevelError, "kill switch engaged")
	r.saveBot(ctx, bot)
	if r.deps.Alerts != nil {
		r.deps.Alerts.NotifyKill(bot)
	}
}

// ConfigPatch carries the UI-driven config updates. Nil fields are left
// unchanged; the whole patch lands atomically and is observed by the
// next tick's snapshot, never mid-tick.
type ConfigPatch struct {
	Symbol     *string
	Watchlist  []string
	IsLiveMode *bool
	Params     *domain.StrategyParams
}

func (r *Runner) UpdateConfig(ctx context.Context, patch ConfigPatch) error {
	r.mu.Lock()
	if patch.Symbol != nil {
		if !domain.IsSupportedSymbol(*patch.Symbol) {
			r.mu.Unlock()
			return fmt.Errorf("unsupported symbol: %s", *patch.Symbol)
		}
		r.bot.Symbol = *patch.Symbol
	}
	if patch.Watchlist != nil {
		seen := make(map[string]struct{}, len(patch.Watchlist))
		list := make([]string, 0, len(patch.Watchlist))
		for _, s := range patch.Watchlist {
			if !domain.IsSupportedSymbol(s) {
				r.mu.Unlock()
				return fmt.Errorf("unsupported symbol in watchlist: %s", s)
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			list = append(list, s)
		}
		r.bot.Watchlist = list
	}
	if patch.Params != nil {
		if err := patch.Params.Validate(); err != nil {
			r.mu.Unlock()
			return err
		}
		r.bot.Params = *patch.Params
	}
	if patch.IsLiveMode != nil {
		r.bot.IsLiveMode = *patch.IsLiveMode
		r.deps.Ledger.SetLiveMode(*patch.IsLiveMode)
	}
	r.bot.UpdatedAt = time.Now().UTC()
	bot := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(ctx, domain.LevelInfo, "configuration updated")
	r.saveBot(ctx, bot)
	return nil
}

// ResetPaper resets the ledger to startingCapital. Rejected on live
// accounts; the rejection reaches both the caller and the event log.
func (r *Runner) ResetPaper(ctx context.Context, startingCapital float64) error {
	if err := r.deps.Ledger.Reset(startingCapital); err != nil {
		if errors.Is(err, domain.ErrLiveModeReset) {
			r.emit(ctx, domain.LevelWarn, "paper reset rejected: account is in live mode")
		}
		return err
	}
	r.emit(ctx, domain.LevelSuccess, fmt.Sprintf("paper account reset to %.2f", startingCapital))
	r.saveLedger(ctx)
	return nil
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs one poll-signal-execute cycle. Any failure is caught here,
// logged, and does not crash the loop; only a live execution failure
// forces a transition out of Running.
func (r *Runner) tick(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			r.emit(ctx, domain.LevelError, fmt.Sprintf("tick aborted by panic: %v", p))
		}
	}()

	bot := r.Bot()

	// Network phase, outside the lock so a slow fetch never blocks a
	// kill command. Bounded so an unresponsive provider abandons the
	// tick instead of wedging it.
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	tick, err := r.deps.Feed.Ticker(fetchCtx, bot.Symbol)
	if err != nil {
		r.emitFetchFailure(ctx, "ticker", bot.Symbol, err)
		return
	}
	bars, err := r.deps.Feed.OHLCV(fetchCtx, bot.Symbol)
	if err != nil {
		r.emitFetchFailure(ctx, "ohlcv", bot.Symbol, err)
		return
	}

	sig := r.deps.Evaluator.Evaluate(bars, bot.Params)

	// Mutation phase.
	r.mu.Lock()
	if r.killRequested.Load() || r.state != domain.StateRunning {
		r.mu.Unlock()
		r.emit(ctx, domain.LevelWarn, "in-flight tick discarded: bot no longer running")
		return
	}

	exec := r.deps.Paper
	if bot.IsLiveMode {
		exec = r.deps.Live
	}
	res, execErr := exec.Execute(ctx, bot, sig, tick.Price)

	if execErr != nil {
		// Live venue failure: do not retry unboundedly, park the bot.
		r.state = domain.StateStopped
		r.bot.IsRunning = false
		stopped := r.snapshotLocked()
		stopLoop := r.cancel
		r.mu.Unlock()

		if stopLoop != nil {
			stopLoop()
		}
		r.emit(ctx, domain.LevelError, fmt.Sprintf("live execution failed, bot stopped: %v", execErr))
		r.saveBot(ctx, stopped)
		return
	}
	r.mu.Unlock()

	r.recordTickOutcome(ctx, bot, sig, res)
}

func (r *Runner) recordTickOutcome(ctx context.Context, bot domain.Bot, sig domain.Signal, res ledger.FillResult) {
	switch {
	case res.Applied && res.Direction == domain.DirectionBuy:
		r.emit(ctx, domain.LevelSuccess,
			fmt.Sprintf("opened %s: %.6f @ %.2f (%s)", res.Symbol, res.Size, res.Price, sig.Basis))
	case res.Applied && res.Direction == domain.DirectionSell:
		r.emit(ctx, domain.LevelSuccess,
			fmt.Sprintf("closed %s: %.6f @ %.2f, pnl %.2f (%s)", res.Symbol, res.Size, res.Price, res.PnL, sig.Basis))
	case sig.Direction != domain.DirectionHold:
		r.emit(ctx, domain.LevelWarn,
			fmt.Sprintf("%s signal not applied: %s", sig.Direction, res.Reason))
	default:
		r.emit(ctx, domain.LevelInfo, fmt.Sprintf("hold %s: %s", bot.Symbol, sig.Basis))
	}

	if res.Applied {
		r.saveLedger(ctx)
		if r.deps.Alerts != nil {
			r.deps.Alerts.NotifyFill(bot, res)
		}
	}
}

func (r *Runner) emitFetchFailure(ctx context.Context, what, symbol string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		r.emit(ctx, domain.LevelWarn, fmt.Sprintf("%s fetch for %s abandoned after timeout", what, symbol))
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	r.emit(ctx, domain.LevelWarn, fmt.Sprintf("%s unavailable for %s, holding: %v", what, symbol, err))
}

func (r *Runner) emit(ctx context.Context, level domain.LogLevel, message string) {
	if r.deps.Sink == nil {
		return
	}
	r.mu.Lock()
	botID := r.bot.ID
	r.mu.Unlock()
	r.deps.Sink.Append(ctx, botID, level, message)
}

func (r *Runner) snapshotLocked() domain.Bot {
	bot := r.bot
	bot.State = r.state
	bot.Watchlist = append([]string(nil), r.bot.Watchlist...)
	return bot
}

func (r *Runner) saveBot(ctx context.Context, bot domain.Bot) {
	if r.deps.Store == nil {
		return
	}
	if err := r.deps.Store.SaveBot(ctx, bot); err != nil {
		log.Printf("bot save failed for %s: %v", bot.ID, err)
	}
}

func (r *Runner) saveLedger(ctx context.Context) {
	if r.deps.Store == nil {
		return
	}
	snap := r.deps.Ledger.Snapshot()
	if err := r.deps.Store.SaveLedger(ctx, snap); err != nil {
		log.Printf("ledger save failed for %s: %v", snap.BotID, err)
	}
}
