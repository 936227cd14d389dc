package service

import (
	"context"

	"tradepulse/internal/domain"
	"tradepulse/internal/engine"

	"go.opentelemetry.io/otel/trace"
)

// LogReader serves the persisted event log.
type LogReader interface {
	ListEntries(ctx context.Context, botID string, limit int) ([]domain.LogEntry, error)
}

// BotStatus is the combined dashboard view of one bot.
type BotStatus struct {
	Bot     domain.Bot            `json:"bot"`
	Account domain.LedgerSnapshot `json:"account"`
}

// BotPatch is the partial-update payload for a bot. Nil fields are left
// unchanged.
type BotPatch struct {
	Symbol     *string                `json:"symbol"`
	Watchlist  []string               `json:"watchlist"`
	IsRunning  *bool                  `json:"is_running"`
	IsLiveMode *bool                  `json:"is_live_mode"`
	Params     *domain.StrategyParams `json:"params"`
}

type BotService struct {
	tracer   trace.Tracer
	registry *engine.Registry
	logs     LogReader
}

func NewBotService(tracer trace.Tracer, registry *engine.Registry, logs LogReader) *BotService {
	return &BotService{tracer: tracer, registry: registry, logs: logs}
}

func (s *BotService) GetStatus(ctx context.Context, botID string) (*BotStatus, error) {
	_, span := s.tracer.Start(ctx, "bot-service.get-status")
	defer span.End()

	r, err := s.registry.Get(botID)
	if err != nil {
		return nil, err
	}
	return &BotStatus{Bot: r.Bot(), Account: r.Ledger().Snapshot()}, nil
}

func (s *BotService) ListStatuses(ctx context.Context) ([]BotStatus, error) {
	_, span := s.tracer.Start(ctx, "bot-service.list-statuses")
	defer span.End()

	runners := s.registry.List()
	out := make([]BotStatus, 0, len(runners))
	for _, r := range runners {
		out = append(out, BotStatus{Bot: r.Bot(), Account: r.Ledger().Snapshot()})
	}
	return out, nil
}

// Patch applies a partial update. Config fields land first so a start
// in the same request runs with the new configuration.
func (s *BotService) Patch(ctx context.Context, botID string, patch BotPatch) (*BotStatus, error) {
	ctx, span := s.tracer.Start(ctx, "bot-service.patch")
	defer span.End()

	r, err := s.registry.Get(botID)
	if err != nil {
		return nil, err
	}

	cfg := engine.ConfigPatch{
		Symbol:     patch.Symbol,
		Watchlist:  patch.Watchlist,
		IsLiveMode: patch.IsLiveMode,
		Params:     patch.Params,
	}
	if cfg.Symbol != nil || cfg.Watchlist != nil || cfg.IsLiveMode != nil || cfg.Params != nil {
		if err := r.UpdateConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}

	if patch.IsRunning != nil {
		if *patch.IsRunning {
			if err := r.Start(context.WithoutCancel(ctx)); err != nil {
				return nil, err
			}
		} else {
			r.Stop(ctx)
		}
	}

	return &BotStatus{Bot: r.Bot(), Account: r.Ledger().Snapshot()}, nil
}

func (s *BotService) Kill(ctx context.Context, botID string) (*BotStatus, error) {
	ctx, span := s.tracer.Start(ctx, "bot-service.kill")
	defer span.End()

	r, err := s.registry.Get(botID)
	if err != nil {
		return nil, err
	}
	r.Kill(ctx)
	return &BotStatus{Bot: r.Bot(), Account: r.Ledger().Snapshot()}, nil
}

func (s *BotService) ResetPaper(ctx context.Context, botID string, startingCapital float64) (*BotStatus, error) {
	ctx, span := s.tracer.Start(ctx, "bot-service.reset-paper")
	defer span.End()

	r, err := s.registry.Get(botID)
	if err != nil {
		return nil, err
	}
	if err := r.ResetPaper(ctx, startingCapital); err != nil {
		return nil, err
	}
	return &BotStatus{Bot: r.Bot(), Account: r.Ledger().Snapshot()}, nil
}

func (s *BotService) Logs(ctx context.Context, botID string, limit int) ([]domain.LogEntry, error) {
	ctx, span := s.tracer.Start(ctx, "bot-service.logs")
	defer span.End()

	if _, err := s.registry.Get(botID); err != nil {
		return nil, err
	}
	if s.logs == nil {
		return nil, nil
	}
	return s.logs.ListEntries(ctx, botID, limit)
}
