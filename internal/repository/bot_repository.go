package repository

import (
	"context"
	"errors"

	"tradepulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type BotRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBotRepository(pool PgxPool, tracer trace.Tracer) *BotRepository {
	return &BotRepository{pool: pool, tracer: tracer}
}

func (r *BotRepository) SaveBot(ctx context.Context, bot domain.Bot) error {
	_, span := r.tracer.Start(ctx, "bot-repo.save-bot")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO bots (id, symbol, watchlist, is_running, is_live_mode,
		                   fast_period, slow_period, rsi_threshold, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		     symbol = EXCLUDED.symbol,
		     watchlist = EXCLUDED.watchlist,
		     is_running = EXCLUDED.is_running,
		     is_live_mode = EXCLUDED.is_live_mode,
		     fast_period = EXCLUDED.fast_period,
		     slow_period = EXCLUDED.slow_period,
		     rsi_threshold = EXCLUDED.rsi_threshold,
		     state = EXCLUDED.state,
		     updated_at = EXCLUDED.updated_at`,
		bot.ID, bot.Symbol, bot.Watchlist, bot.IsRunning, bot.IsLiveMode,
		bot.Params.FastPeriod, bot.Params.SlowPeriod, bot.Params.RSIThreshold,
		string(bot.State), bot.CreatedAt.UTC(), bot.UpdatedAt.UTC(),
	)
	return err
}

func (r *BotRepository) GetBot(ctx context.Context, id string) (*domain.Bot, error) {
	_, span := r.tracer.Start(ctx, "bot-repo.get-bot")
	defer span.End()

	bot := &domain.Bot{}
	var state string
	err := r.pool.QueryRow(ctx,
		`SELECT id, symbol, watchlist, is_running, is_live_mode,
		        fast_period, slow_period, rsi_threshold, state, created_at, updated_at
		 FROM bots WHERE id = $1`, id,
	).Scan(
		&bot.ID, &bot.Symbol, &bot.Watchlist, &bot.IsRunning, &bot.IsLiveMode,
		&bot.Params.FastPeriod, &bot.Params.SlowPeriod, &bot.Params.RSIThreshold,
		&state, &bot.CreatedAt, &bot.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBotNotFound
	}
	if err != nil {
		return nil, err
	}
	bot.State = domain.BotState(state)
	return bot, nil
}

func (r *BotRepository) ListBots(ctx context.Context) ([]domain.Bot, error) {
	_, span := r.tracer.Start(ctx, "bot-repo.list-bots")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, watchlist, is_running, is_live_mode,
		        fast_period, slow_period, rsi_threshold, state, created_at, updated_at
		 FROM bots ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []domain.Bot
	for rows.Next() {
		var bot domain.Bot
		var state string
		if err := rows.Scan(
			&bot.ID, &bot.Symbol, &bot.Watchlist, &bot.IsRunning, &bot.IsLiveMode,
			&bot.Params.FastPeriod, &bot.Params.SlowPeriod, &bot.Params.RSIThreshold,
			&state, &bot.CreatedAt, &bot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bot.State = domain.BotState(state)
		bots = append(bots, bot)
	}
	return bots, rows.Err()
}
