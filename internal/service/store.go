package service

import (
	"context"

	"tradepulse/internal/domain"
)

// BotWriter persists bot configuration.
type BotWriter interface {
	SaveBot(ctx context.Context, bot domain.Bot) error
}

// LedgerWriter persists account snapshots.
type LedgerWriter interface {
	SaveSnapshot(ctx context.Context, snap domain.LedgerSnapshot) error
}

// StateStore adapts the repositories to what the engine persists after
// each mutation.
type StateStore struct {
	bots    BotWriter
	ledgers LedgerWriter
}

func NewStateStore(bots BotWriter, ledgers LedgerWriter) *StateStore {
	return &StateStore{bots: bots, ledgers: ledgers}
}

func (s *StateStore) SaveBot(ctx context.Context, bot domain.Bot) error {
	if s.bots == nil {
		return nil
	}
	return s.bots.SaveBot(ctx, bot)
}

func (s *StateStore) SaveLedger(ctx context.Context, snap domain.LedgerSnapshot) error {
	if s.ledgers == nil {
		return nil
	}
	return s.ledgers.SaveSnapshot(ctx, snap)
}
