package engine

import (
	"context"
	"sync"

	"tradepulse/internal/domain"
)

// Registry owns every live Runner, keyed by bot id.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]*Runner
}

func NewRegistry() *Registry {
	return &Registry{runners: make(map[string]*Runner)}
}

func (g *Registry) Add(r *Runner) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runners[r.Bot().ID] = r
}

func (g *Registry) Get(botID string) (*Runner, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.runners[botID]
	if !ok {
		return nil, domain.ErrBotNotFound
	}
	return r, nil
}

func (g *Registry) Remove(botID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.runners, botID)
}

func (g *Registry) List() []*Runner {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Runner, 0, len(g.runners))
	for _, r := range g.runners {
		out = append(out, r)
	}
	return out
}

// StopAll halts every running bot, used on shutdown.
func (g *Registry) StopAll(ctx context.Context) {
	for _, r := range g.List() {
		if r.State() == domain.StateRunning {
			r.Stop(ctx)
		}
	}
}
