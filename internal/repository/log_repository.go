package repository

import (
	"context"

	"tradepulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type LogRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewLogRepository(pool PgxPool, tracer trace.Tracer) *LogRepository {
	return &LogRepository{pool: pool, tracer: tracer}
}

func (r *LogRepository) InsertEntry(ctx context.Context, entry domain.LogEntry) error {
	_, span := r.tracer.Start(ctx, "log-repo.insert-entry")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO bot_logs (bot_id, ts, level, message) VALUES ($1, $2, $3, $4)`,
		entry.BotID, entry.Timestamp.UTC(), string(entry.Level), entry.Message,
	)
	return err
}

// ListEntries returns the newest entries first.
func (r *LogRepository) ListEntries(ctx context.Context, botID string, limit int) ([]domain.LogEntry, error) {
	_, span := r.tracer.Start(ctx, "log-repo.list-entries")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, bot_id, ts, level, message
		 FROM bot_logs
		 WHERE bot_id = $1
		 ORDER BY ts DESC, id DESC
		 LIMIT $2`,
		botID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		var level string
		if err := rows.Scan(&e.ID, &e.BotID, &e.Timestamp, &level, &e.Message); err != nil {
			return nil, err
		}
		e.Level = domain.LogLevel(level)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
