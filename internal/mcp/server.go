// Package mcp exposes read-only market data and bot state over the
// Model Context Protocol so LLM clients can inspect the system without
// touching the trading surface.
package mcp

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tradepulse/internal/domain"
	"tradepulse/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultRequestTimeout = 5 * time.Second

// MarketReader serves cached market data.
type MarketReader interface {
	Ticker(ctx context.Context, symbol string) (*domain.Ticker, error)
	OHLCV(ctx context.Context, symbol string) ([]domain.Candle, error)
	RSI(ctx context.Context, symbol string) ([]domain.RSIPoint, error)
}

// BotReader serves bot lifecycle and account state.
type BotReader interface {
	GetStatus(ctx context.Context, botID string) (*service.BotStatus, error)
	ListStatuses(ctx context.Context) ([]service.BotStatus, error)
	Logs(ctx context.Context, botID string, limit int) ([]domain.LogEntry, error)
}

type ServerConfig struct {
	RequestTimeout time.Duration
}

func NewServer(tracer trace.Tracer, market MarketReader, bots BotReader, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "tradepulse-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Use these tools to inspect market data, bot lifecycle state, paper accounts and event logs. All tools are read-only.",
		Logger:       slog.Default(),
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}

	registerTools(srv, market, bots)
	return srv
}

type HTTPHandlerConfig struct {
	AuthToken string
}

// NewHTTPTransportHandler wraps the streamable HTTP transport with
// bearer-token auth when a token is configured.
func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})

	if cfg.AuthToken == "" {
		return base
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.AuthToken)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		base.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if timeout <= 0 {
				return next(ctx, method, req)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(timeoutCtx, method, req)
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, span := tracer.Start(ctx, mcpSpanName(method, req))
			span.SetAttributes(attribute.String("mcp.method", method))
			defer span.End()

			if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
				span.SetAttributes(attribute.String("mcp.tool", strings.TrimSpace(callReq.Params.Name)))
			}

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
			}
			return result, err
		}
	}
}

func mcpSpanName(method string, req sdkmcp.Request) string {
	if method == "tools/call" {
		if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
			if name := strings.TrimSpace(callReq.Params.Name); name != "" {
				return "mcp.tool." + strings.ReplaceAll(name, "/", ".")
			}
		}
		return "mcp.tool.call"
	}
	return "mcp." + strings.ReplaceAll(method, "/", ".")
}
