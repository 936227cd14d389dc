package domain

import (
	"errors"
	"fmt"
	"time"
)

// BotState is the lifecycle state of a trading bot.
type BotState string

const (
	StateIdle    BotState = "idle"
	StateRunning BotState = "running"
	StateStopped BotState = "stopped"
	StateKilled  BotState = "killed"
)

func (s BotState) IsValid() bool {
	switch s {
	case StateIdle, StateRunning, StateStopped, StateKilled:
		return true
	}
	return false
}

// StrategyParams are the per-bot tuning knobs for the EMA/RSI strategy.
type StrategyParams struct {
	FastPeriod   int     `json:"fast_period"`
	SlowPeriod   int     `json:"slow_period"`
	RSIThreshold float64 `json:"rsi_threshold"`
}

const (
	DefaultFastPeriod   = 9
	DefaultSlowPeriod   = 21
	DefaultRSIThreshold = 45
	RSIOverbought       = 70
)

func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		FastPeriod:   DefaultFastPeriod,
		SlowPeriod:   DefaultSlowPeriod,
		RSIThreshold: DefaultRSIThreshold,
	}
}

func (p StrategyParams) Validate() error {
	if p.FastPeriod <= 0 || p.SlowPeriod <= 0 {
		return fmt.Errorf("ema periods must be positive")
	}
	if p.FastPeriod >= p.SlowPeriod {
		return fmt.Errorf("fast period must be shorter than slow period")
	}
	if p.RSIThreshold <= 0 || p.RSIThreshold >= 100 {
		return fmt.Errorf("rsi threshold must be between 0 and 100")
	}
	return nil
}

// Bot is one user-owned trading bot and its configuration.
type Bot struct {
	ID         string         `json:"id"`
	Symbol     string         `json:"symbol"`
	Watchlist  []string       `json:"watchlist"`
	IsRunning  bool           `json:"is_running"`
	IsLiveMode bool           `json:"is_live_mode"`
	Params     StrategyParams `json:"params"`
	State      BotState       `json:"state"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Candle is one OHLCV bar. Bars are immutable once their interval has
// closed; the feed may still rewrite the in-progress bar.
type Candle struct {
	Symbol   string    `json:"symbol"`
	OpenTime time.Time `json:"time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Ticker is the latest market snapshot for one symbol. Stale is set when
// the value was served from cache after a provider failure.
type Ticker struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
	High24h   float64 `json:"high_24h"`
	Low24h    float64 `json:"low_24h"`
	Volume24h float64 `json:"volume_24h"`
	Stale     bool    `json:"stale,omitempty"`
}

// RSIPoint pairs one bar time with its RSI value.
type RSIPoint struct {
	Time time.Time `json:"time"`
	RSI  float64   `json:"rsi"`
}

type SignalDirection string

const (
	DirectionBuy  SignalDirection = "buy"
	DirectionSell SignalDirection = "sell"
	DirectionHold SignalDirection = "hold"
)

// Signal is a directional trading decision. Signals are ephemeral and
// never persisted beyond the event log.
type Signal struct {
	Symbol    string          `json:"symbol"`
	Direction SignalDirection `json:"direction"`
	Timestamp time.Time       `json:"timestamp"`
	Basis     string          `json:"basis,omitempty"`
}

// Position is an open exposure held by a bot. At most one per bot.
type Position struct {
	Symbol     string    `json:"symbol"`
	EntryPrice float64   `json:"entry_price"`
	Size       float64   `json:"size"`
	OpenedAt   time.Time `json:"opened_at"`
}

// EquityPoint is one balance snapshot on the equity curve.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Balance   float64   `json:"balance"`
}

// LedgerSnapshot is a consistent read of one bot's account state.
type LedgerSnapshot struct {
	BotID           string        `json:"bot_id"`
	Balance         float64       `json:"balance"`
	StartingCapital float64       `json:"starting_capital"`
	Position        *Position     `json:"position,omitempty"`
	EquityCurve     []EquityPoint `json:"equity_curve"`
}

type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarn    LogLevel = "warn"
	LevelError   LogLevel = "error"
	LevelSuccess LogLevel = "success"
)

func (l LogLevel) IsValid() bool {
	switch l {
	case LevelInfo, LevelWarn, LevelError, LevelSuccess:
		return true
	}
	return false
}

// LogEntry is one append-only event owned by a bot, consumed by the
// dashboard's log view.
type LogEntry struct {
	ID        int64     `json:"id"`
	BotID     string    `json:"bot_id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// ConversationMessage is one turn of the advisor chat history.
type ConversationMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

var (
	// ErrDataUnavailable means the market data provider failed and no
	// cached value exists. Callers degrade to hold / placeholder.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientData means an indicator received an empty series.
	ErrInsufficientData = errors.New("insufficient data for indicator")

	// ErrLiveModeReset rejects a paper reset on a live-funds account.
	ErrLiveModeReset = errors.New("reset forbidden in live mode")

	// ErrBotNotFound is returned for unknown bot ids.
	ErrBotNotFound = errors.New("bot not found")
)

// ExecutionError wraps a live order failure. Seeing one forces the bot
// out of Running.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed during %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// SupportedSymbols lists the tradeable pairs, in BASE/QUOTE form.
var SupportedSymbols = []string{
	"BTC/USDT",
	"ETH/USDT",
	"SOL/USDT",
	"BNB/USDT",
	"XRP/USDT",
	"ADA/USDT",
	"DOGE/USDT",
	"DOT/USDT",
}

// MarketID maps a pair to the provider's instrument id.
var MarketID = map[string]string{
	"BTC/USDT":  "BTCUSDT",
	"ETH/USDT":  "ETHUSDT",
	"SOL/USDT":  "SOLUSDT",
	"BNB/USDT":  "BNBUSDT",
	"XRP/USDT":  "XRPUSDT",
	"ADA/USDT":  "ADAUSDT",
	"DOGE/USDT": "DOGEUSDT",
	"DOT/USDT":  "DOTUSDT",
}

func IsSupportedSymbol(symbol string) bool {
	_, ok := MarketID[symbol]
	return ok
}
