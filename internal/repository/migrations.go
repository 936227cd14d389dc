package repository

import "context"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS bots (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		watchlist TEXT[] NOT NULL DEFAULT '{}',
		is_running BOOLEAN NOT NULL DEFAULT FALSE,
		is_live_mode BOOLEAN NOT NULL DEFAULT FALSE,
		fast_period INT NOT NULL,
		slow_period INT NOT NULL,
		rsi_threshold DOUBLE PRECISION NOT NULL,
		state TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS candles (
		symbol TEXT NOT NULL,
		open_time TIMESTAMPTZ NOT NULL,
		open DOUBLE PRECISION NOT NULL,
		high DOUBLE PRECISION NOT NULL,
		low DOUBLE PRECISION NOT NULL,
		close DOUBLE PRECISION NOT NULL,
		volume DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (symbol, open_time)
	)`,
	`CREATE TABLE IF NOT EXISTS ledgers (
		bot_id TEXT PRIMARY KEY,
		balance DOUBLE PRECISION NOT NULL,
		starting_capital DOUBLE PRECISION NOT NULL,
		position_symbol TEXT,
		position_entry DOUBLE PRECISION,
		position_size DOUBLE PRECISION,
		position_opened_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS equity_points (
		bot_id TEXT NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		balance DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (bot_id, ts)
	)`,
	`CREATE TABLE IF NOT EXISTS bot_logs (
		id BIGSERIAL PRIMARY KEY,
		bot_id TEXT NOT NULL,
		ts TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		level TEXT NOT NULL,
		message TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bot_logs_bot_ts ON bot_logs (bot_id, ts DESC)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id BIGSERIAL PRIMARY KEY,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// RunMigrations applies the schema. Statements are idempotent so this
// is safe to run on every boot.
func RunMigrations(ctx context.Context, pool PgxPool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
