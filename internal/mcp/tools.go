package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, market MarketReader, bots BotReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_ticker",
		Description: "Get the latest cached ticker for one trading pair",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tickerGetInput) (*mcp.CallToolResult, tickerGetOutput, error) {
		if market == nil {
			return nil, tickerGetOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, tickerGetOutput{}, err
		}
		ticker, err := market.Ticker(ctx, symbol)
		if err != nil {
			return nil, tickerGetOutput{}, err
		}
		return nil, tickerGetOutput{Ticker: ticker}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_candles",
		Description: "Get recent 1m OHLCV candles for one trading pair",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in candlesListInput) (*mcp.CallToolResult, candlesListOutput, error) {
		if market == nil {
			return nil, candlesListOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, candlesListOutput{}, err
		}
		candles, err := market.OHLCV(ctx, symbol)
		if err != nil {
			return nil, candlesListOutput{}, err
		}
		return nil, candlesListOutput{Symbol: symbol, Candles: candles}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_rsi",
		Description: "Get the RSI-14 series aligned to recent candles for one trading pair",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in rsiGetInput) (*mcp.CallToolResult, rsiGetOutput, error) {
		if market == nil {
			return nil, rsiGetOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, rsiGetOutput{}, err
		}
		points, err := market.RSI(ctx, symbol)
		if err != nil {
			return nil, rsiGetOutput{}, err
		}
		return nil, rsiGetOutput{Symbol: symbol, Points: points}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bots_list",
		Description: "List every bot with its lifecycle state, balance and open position",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ botsListInput) (*mcp.CallToolResult, botsListOutput, error) {
		if bots == nil {
			return nil, botsListOutput{}, fmt.Errorf("bot service unavailable")
		}
		statuses, err := bots.ListStatuses(ctx)
		if err != nil {
			return nil, botsListOutput{}, err
		}
		return nil, botsListOutput{Bots: statuses}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bot_status",
		Description: "Get one bot's configuration, state, balance, position and equity curve",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in botStatusInput) (*mcp.CallToolResult, botStatusOutput, error) {
		if bots == nil {
			return nil, botStatusOutput{}, fmt.Errorf("bot service unavailable")
		}
		if in.BotID == "" {
			return nil, botStatusOutput{}, fmt.Errorf("bot_id is required")
		}
		status, err := bots.GetStatus(ctx, in.BotID)
		if err != nil {
			return nil, botStatusOutput{}, err
		}
		return nil, botStatusOutput{Status: status}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bot_logs",
		Description: "Get one bot's recent event log entries, newest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in botLogsInput) (*mcp.CallToolResult, botLogsOutput, error) {
		if bots == nil {
			return nil, botLogsOutput{}, fmt.Errorf("bot service unavailable")
		}
		if in.BotID == "" {
			return nil, botLogsOutput{}, fmt.Errorf("bot_id is required")
		}
		logs, err := bots.Logs(ctx, in.BotID, normalizeLogLimit(in.Limit))
		if err != nil {
			return nil, botLogsOutput{}, err
		}
		return nil, botLogsOutput{Logs: logs}, nil
	})
}
