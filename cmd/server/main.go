package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"tradepulse/internal/advisor"
	"tradepulse/internal/alert"
	"tradepulse/internal/cache"
	"tradepulse/internal/config"
	"tradepulse/internal/db"
	"tradepulse/internal/domain"
	"tradepulse/internal/engine"
	"tradepulse/internal/executor"
	"tradepulse/internal/feed"
	"tradepulse/internal/handler"
	"tradepulse/internal/ledger"
	"tradepulse/internal/provider"
	"tradepulse/internal/repository"
	"tradepulse/internal/service"
	signalengine "tradepulse/internal/signal"
	"tradepulse/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "tradepulse/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	startTelegramBotFunc   = alert.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           TradePulse API
// @version         1.0
// @description     Trading bot execution engine with paper and live accounts.

// @host      localhost:8080
// @BasePath  /
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

	// Repositories are optional: without Postgres the engine runs purely
	// in memory.
	var (
		botRepo    *repository.BotRepository
		candleRepo *repository.CandleRepository
		ledgerRepo *repository.LedgerRepository
		logRepo    *repository.LogRepository
		convRepo   *repository.ConversationRepository
	)
	if db.Pool != nil {
		if err := repository.RunMigrations(ctx, db.Pool); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		botRepo = repository.NewBotRepository(db.Pool, tracer)
		candleRepo = repository.NewCandleRepository(db.Pool, tracer)
		ledgerRepo = repository.NewLedgerRepository(db.Pool, tracer)
		logRepo = repository.NewLogRepository(db.Pool, tracer)
		convRepo = repository.NewConversationRepository(db.Pool, tracer)
	}

	var logWriter service.LogWriter
	var logReader service.LogReader
	if logRepo != nil {
		logWriter = logRepo
		logReader = logRepo
	}
	sink := service.NewLogSink(logWriter)

	var feedCandles feed.CandleRepository
	if candleRepo != nil {
		feedCandles = candleRepo
	}
	marketProvider := provider.NewBinanceProvider(tracer, cfg.MarketBaseURL)
	marketFeed := feed.New(tracer, marketProvider, cache.Client, feedCandles,
		time.Duration(cfg.TickerCacheSecs)*time.Second,
		time.Duration(cfg.OHLCVCacheSecs)*time.Second,
	)
	marketService := service.NewMarketService(tracer, marketFeed)

	var store engine.StateStore
	if botRepo != nil && ledgerRepo != nil {
		store = service.NewStateStore(botRepo, ledgerRepo)
	}

	registry := engine.NewRegistry()

	// Advisor and Telegram come up before the runners so fills reach the
	// alert channel from the first tick.
	var advisorQ handler.AdvisorQuerier
	var alertAdvisor alert.AdvisorQuerier
	if cfg.OpenAIAPIKey != "" {
		var convStore advisor.ConversationStore
		if convRepo != nil {
			convStore = convRepo
		}
		adv := advisor.New(tracer,
			advisor.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel),
			convStore,
			portfolioSummaryFunc(registry),
			cfg.AdvisorMaxHistory,
		)
		advisorQ = adv
		alertAdvisor = adv
	}

	alerts := startTelegramBotFunc(cfg.TelegramBotToken, marketService,
		registryStatusLister{registry}, alertAdvisor)
	var notifier engine.Notifier
	if alerts != nil {
		notifier = alerts
	}

	bots, ledgers := bootstrapBots(ctx, cfg, botRepo, ledgerRepo)
	for i, bot := range bots {
		led := ledgers[i]
		runner := engine.NewRunner(bot, engine.Deps{
			Feed:      marketFeed,
			Evaluator: signalengine.NewEngine(nil),
			Ledger:    led,
			Paper:     executor.NewPaper(led),
			Live: executor.NewLive(
				executor.NewBinanceClient(cfg.MarketBaseURL, cfg.ExchangeAPIKey, cfg.ExchangeAPISecret), led),
			Sink:   sink,
			Store:  store,
			Alerts: notifier,
		}, engine.Config{
			TickInterval: time.Duration(cfg.BotTickSecs) * time.Second,
			FetchTimeout: time.Duration(cfg.FetchTimeoutSec) * time.Second,
		})
		registry.Add(runner)

		if bot.IsRunning {
			if err := runner.Start(ctx); err != nil {
				log.Printf("failed to resume bot %s: %v", bot.ID, err)
			}
		}
	}

	botService := service.NewBotService(tracer, registry, logReader)
	h := handler.New(tracer, botService, marketService, sink, advisorQ)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("tradepulse"))
	r.Use(cors.Default())

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	registry.StopAll(ctx)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// bootstrapBots restores persisted bots and their ledgers, or seeds a
// single default paper bot on first boot.
func bootstrapBots(
	ctx context.Context,
	cfg *config.Config,
	botRepo *repository.BotRepository,
	ledgerRepo *repository.LedgerRepository,
) ([]domain.Bot, []*ledger.Ledger) {
	var bots []domain.Bot
	if botRepo != nil {
		persisted, err := botRepo.ListBots(ctx)
		if err != nil {
			log.Printf("failed to load bots, starting fresh: %v", err)
		} else {
			bots = persisted
		}
	}
	if len(bots) == 0 {
		now := time.Now().UTC()
		bots = []domain.Bot{{
			ID:        uuid.NewString(),
			Symbol:    domain.SupportedSymbols[0],
			Watchlist: append([]string(nil), domain.SupportedSymbols[:3]...),
			Params:    domain.DefaultStrategyParams(),
			State:     domain.StateIdle,
			CreatedAt: now,
			UpdatedAt: now,
		}}
		log.Printf("no persisted bots, seeded paper bot %s", bots[0].ID)
	}

	ledgers := make([]*ledger.Ledger, len(bots))
	for i, bot := range bots {
		var led *ledger.Ledger
		if ledgerRepo != nil {
			snap, err := ledgerRepo.GetSnapshot(ctx, bot.ID)
			switch {
			case err == nil:
				led = ledger.NewFromSnapshot(*snap, cfg.PositionFraction, bot.IsLiveMode, nil)
			case errors.Is(err, domain.ErrBotNotFound):
			default:
				log.Printf("failed to load ledger for bot %s: %v", bot.ID, err)
			}
		}
		if led == nil {
			led = ledger.New(bot.ID, cfg.StartingCapital, cfg.PositionFraction, nil)
			led.SetLiveMode(bot.IsLiveMode)
		}
		ledgers[i] = led
	}
	return bots, ledgers
}

// portfolioSummaryFunc renders the advisor's portfolio context from
// live runner state.
func portfolioSummaryFunc(registry *engine.Registry) func() string {
	return func() string {
		runners := registry.List()
		if len(runners) == 0 {
			return ""
		}
		lines := make([]string, 0, len(runners))
		for _, r := range runners {
			bot := r.Bot()
			snap := r.Ledger().Snapshot()
			line := fmt.Sprintf("bot %s: %s, state %s, balance %.2f USDT", bot.ID, bot.Symbol, bot.State, snap.Balance)
			if snap.Position != nil {
				line += fmt.Sprintf(", holding %.6f %s from %.2f", snap.Position.Size, snap.Position.Symbol, snap.Position.EntryPrice)
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n")
	}
}

// registryStatusLister adapts the runner registry to the Telegram
// status surface.
type registryStatusLister struct {
	registry *engine.Registry
}

func (l registryStatusLister) ListStatuses(ctx context.Context) ([]alert.BotStatusView, error) {
	runners := l.registry.List()
	views := make([]alert.BotStatusView, 0, len(runners))
	for _, r := range runners {
		bot := r.Bot()
		snap := r.Ledger().Snapshot()
		views = append(views, alert.BotStatusView{
			ID:       bot.ID,
			Symbol:   bot.Symbol,
			State:    bot.State,
			Balance:  snap.Balance,
			Position: snap.Position,
		})
	}
	return views, nil
}
