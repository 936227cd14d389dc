package repository

import (
	"context"
	"errors"
	"time"

	"tradepulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type LedgerRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewLedgerRepository(pool PgxPool, tracer trace.Tracer) *LedgerRepository {
	return &LedgerRepository{pool: pool, tracer: tracer}
}

// SaveSnapshot upserts the account row and the equity curve points. The
// curve is append-only so re-writing existing points is a no-op.
func (r *LedgerRepository) SaveSnapshot(ctx context.Context, snap domain.LedgerSnapshot) error {
	_, span := r.tracer.Start(ctx, "ledger-repo.save-snapshot")
	defer span.End()

	var posSymbol *string
	var posEntry, posSize *float64
	var posOpenedAt *time.Time
	if snap.Position != nil {
		posSymbol = &snap.Position.Symbol
		posEntry = &snap.Position.EntryPrice
		posSize = &snap.Position.Size
		t := snap.Position.OpenedAt.UTC()
		posOpenedAt = &t
	}

	if _, err := r.pool.Exec(ctx,
		`INSERT INTO ledgers (bot_id, balance, starting_capital,
		                      position_symbol, position_entry, position_size, position_opened_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (bot_id) DO UPDATE SET
		     balance = EXCLUDED.balance,
		     starting_capital = EXCLUDED.starting_capital,
		     position_symbol = EXCLUDED.position_symbol,
		     position_entry = EXCLUDED.position_entry,
		     position_size = EXCLUDED.position_size,
		     position_opened_at = EXCLUDED.position_opened_at`,
		snap.BotID, snap.Balance, snap.StartingCapital,
		posSymbol, posEntry, posSize, posOpenedAt,
	); err != nil {
		return err
	}

	if len(snap.EquityCurve) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range snap.EquityCurve {
		batch.Queue(
			`INSERT INTO equity_points (bot_id, ts, balance)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (bot_id, ts) DO NOTHING`,
			snap.BotID, p.Timestamp.UTC(), p.Balance,
		)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range snap.EquityCurve {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *LedgerRepository) GetSnapshot(ctx context.Context, botID string) (*domain.LedgerSnapshot, error) {
	_, span := r.tracer.Start(ctx, "ledger-repo.get-snapshot")
	defer span.End()

	snap := &domain.LedgerSnapshot{BotID: botID}
	var posSymbol *string
	var posEntry, posSize *float64
	var posOpenedAt *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT balance, starting_capital,
		        position_symbol, position_entry, position_size, position_opened_at
		 FROM ledgers WHERE bot_id = $1`, botID,
	).Scan(&snap.Balance, &snap.StartingCapital, &posSymbol, &posEntry, &posSize, &posOpenedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBotNotFound
	}
	if err != nil {
		return nil, err
	}
	if posSymbol != nil {
		snap.Position = &domain.Position{
			Symbol:     *posSymbol,
			EntryPrice: *posEntry,
			Size:       *posSize,
			OpenedAt:   posOpenedAt.UTC(),
		}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ts, balance FROM equity_points WHERE bot_id = $1 ORDER BY ts`, botID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.EquityPoint
		if err := rows.Scan(&p.Timestamp, &p.Balance); err != nil {
			return nil, err
		}
		snap.EquityCurve = append(snap.EquityCurve, p)
	}
	return snap, rows.Err()
}
