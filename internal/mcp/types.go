package mcp

import (
	"fmt"
	"strings"

	"tradepulse/internal/domain"
	"tradepulse/internal/service"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 500
)

type tickerGetInput struct {
	Symbol string `json:"symbol" jsonschema:"trading pair (e.g. BTC/USDT or BTC-USDT)"`
}

type tickerGetOutput struct {
	Ticker *domain.Ticker `json:"ticker"`
}

type candlesListInput struct {
	Symbol string `json:"symbol" jsonschema:"trading pair (e.g. BTC/USDT or BTC-USDT)"`
}

type candlesListOutput struct {
	Symbol  string          `json:"symbol"`
	Candles []domain.Candle `json:"candles"`
}

type rsiGetInput struct {
	Symbol string `json:"symbol" jsonschema:"trading pair (e.g. BTC/USDT or BTC-USDT)"`
}

type rsiGetOutput struct {
	Symbol string            `json:"symbol"`
	Points []domain.RSIPoint `json:"points"`
}

type botsListInput struct{}

type botsListOutput struct {
	Bots []service.BotStatus `json:"bots"`
}

type botStatusInput struct {
	BotID string `json:"bot_id" jsonschema:"bot identifier"`
}

type botStatusOutput struct {
	Status *service.BotStatus `json:"status"`
}

type botLogsInput struct {
	BotID string `json:"bot_id" jsonschema:"bot identifier"`
	Limit int    `json:"limit,omitempty" jsonschema:"number of entries to return, max 500"`
}

type botLogsOutput struct {
	Logs []domain.LogEntry `json:"logs"`
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	symbol = strings.ReplaceAll(symbol, "-", "/")
	if !domain.IsSupportedSymbol(symbol) {
		return "", fmt.Errorf("unsupported symbol: %s", symbol)
	}
	return symbol, nil
}

func normalizeLogLimit(limit int) int {
	if limit <= 0 {
		return defaultLogLimit
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}
