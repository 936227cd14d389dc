package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"tradepulse/internal/cache"
	"tradepulse/internal/config"
	"tradepulse/internal/db"
	"tradepulse/internal/domain"
	"tradepulse/internal/engine"
	"tradepulse/internal/executor"
	"tradepulse/internal/feed"
	"tradepulse/internal/ledger"
	mcpserver "tradepulse/internal/mcp"
	"tradepulse/internal/provider"
	"tradepulse/internal/repository"
	"tradepulse/internal/service"
	signalengine "tradepulse/internal/signal"
	"tradepulse/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initPostgresFunc  = db.InitPostgres
	initRedisFunc     = cache.InitRedis
	initTracerFunc    = tracing.InitTracer
	newMCPServerFunc  = mcpserver.NewServer
	newMCPHandlerFunc = mcpserver.NewHTTPTransportHandler
	runStdioFunc      = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var (
		botRepo    *repository.BotRepository
		candleRepo *repository.CandleRepository
		ledgerRepo *repository.LedgerRepository
		logRepo    *repository.LogRepository
	)
	if db.Pool != nil {
		botRepo = repository.NewBotRepository(db.Pool, tracer)
		candleRepo = repository.NewCandleRepository(db.Pool, tracer)
		ledgerRepo = repository.NewLedgerRepository(db.Pool, tracer)
		logRepo = repository.NewLogRepository(db.Pool, tracer)
	}

	var feedCandles feed.CandleRepository
	if candleRepo != nil {
		feedCandles = candleRepo
	}
	marketFeed := feed.New(tracer,
		provider.NewBinanceProvider(tracer, cfg.MarketBaseURL),
		cache.Client, feedCandles,
		time.Duration(cfg.TickerCacheSecs)*time.Second,
		time.Duration(cfg.OHLCVCacheSecs)*time.Second,
	)
	marketService := service.NewMarketService(tracer, marketFeed)

	// The MCP process never starts bots. It mirrors persisted state
	// into an idle registry so the read-only tools have something to
	// report.
	registry := engine.NewRegistry()
	loadIdleRunners(ctx, cfg, registry, botRepo, ledgerRepo, marketFeed)

	var logReader service.LogReader
	if logRepo != nil {
		logReader = logRepo
	}
	botService := service.NewBotService(tracer, registry, logReader)

	mcpSrv := newMCPServerFunc(tracer, marketService, botService, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	switch cfg.MCPTransport {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalf("mcp stdio server failed: %v", err)
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv); err != nil {
			log.Fatalf("mcp http server failed: %v", err)
		}
	default:
		log.Fatalf("unsupported MCP_TRANSPORT: %s", cfg.MCPTransport)
	}
}

func loadIdleRunners(
	ctx context.Context,
	cfg *config.Config,
	registry *engine.Registry,
	botRepo *repository.BotRepository,
	ledgerRepo *repository.LedgerRepository,
	marketFeed *feed.Feed,
) {
	if botRepo == nil {
		return
	}
	bots, err := botRepo.ListBots(ctx)
	if err != nil {
		log.Printf("failed to load bots: %v", err)
		return
	}
	for _, bot := range bots {
		var led *ledger.Ledger
		if ledgerRepo != nil {
			if snap, err := ledgerRepo.GetSnapshot(ctx, bot.ID); err == nil {
				led = ledger.NewFromSnapshot(*snap, cfg.PositionFraction, bot.IsLiveMode, nil)
			}
		}
		if led == nil {
			led = ledger.New(bot.ID, cfg.StartingCapital, cfg.PositionFraction, nil)
			led.SetLiveMode(bot.IsLiveMode)
		}
		bot.IsRunning = false
		if bot.State == domain.StateRunning {
			bot.State = domain.StateStopped
		}
		registry.Add(engine.NewRunner(bot, engine.Deps{
			Feed:      marketFeed,
			Evaluator: signalengine.NewEngine(nil),
			Ledger:    led,
			Paper:     executor.NewPaper(led),
		}, engine.Config{}))
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server) error {
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken: cfg.MCPAuthToken,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Printf("mcp http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
