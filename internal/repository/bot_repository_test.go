package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tradepulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("repository-test")
}

func TestSaveBotUpserts(t *testing.T) {
	pool := &stubPool{}
	repo := NewBotRepository(pool, testTracer())

	bot := domain.Bot{
		ID:        "bot-1",
		Symbol:    "BTC/USDT",
		Watchlist: []string{"BTC/USDT"},
		Params:    domain.DefaultStrategyParams(),
		State:     domain.StateIdle,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.SaveBot(context.Background(), bot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 || !strings.Contains(pool.execSQL[0], "ON CONFLICT (id)") {
		t.Fatalf("expected single upsert, got %v", pool.execSQL)
	}
}

func TestGetBotNotFound(t *testing.T) {
	pool := &stubPool{rowErr: pgx.ErrNoRows}
	repo := NewBotRepository(pool, testTracer())

	_, err := repo.GetBot(context.Background(), "missing")
	if !errors.Is(err, domain.ErrBotNotFound) {
		t.Fatalf("expected ErrBotNotFound, got %v", err)
	}
}

func TestGetBotScansRow(t *testing.T) {
	now := time.Now().UTC()
	pool := &stubPool{rowData: []any{
		"bot-1", "ETH/USDT", []string{"ETH/USDT", "SOL/USDT"}, true, false,
		9, 21, 45.0, "running", now, now,
	}}
	repo := NewBotRepository(pool, testTracer())

	bot, err := repo.GetBot(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bot.Symbol != "ETH/USDT" || bot.State != domain.StateRunning {
		t.Fatalf("unexpected bot: %+v", bot)
	}
	if len(bot.Watchlist) != 2 || bot.Params.SlowPeriod != 21 {
		t.Fatalf("unexpected bot fields: %+v", bot)
	}
}

func TestListBotsReturnsRows(t *testing.T) {
	now := time.Now().UTC()
	pool := &stubPool{rowsData: [][]any{
		{"bot-1", "BTC/USDT", []string{"BTC/USDT"}, false, false, 9, 21, 45.0, "idle", now, now},
		{"bot-2", "ETH/USDT", []string{"ETH/USDT"}, true, true, 5, 13, 40.0, "running", now, now},
	}}
	repo := NewBotRepository(pool, testTracer())

	bots, err := repo.ListBots(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bots) != 2 || bots[1].IsLiveMode != true {
		t.Fatalf("unexpected bots: %+v", bots)
	}
}
