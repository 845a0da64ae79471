package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/inhouse-league/internal/domain/league"
)

type LeagueRepository struct {
	mu     sync.RWMutex
	items  map[string]league.League
	orders []string
}

func NewLeagueRepository(leagues ...league.League) *LeagueRepository {
	r := &LeagueRepository{items: make(map[string]league.League, len(leagues))}
	for _, l := range leagues {
		_ = r.Upsert(context.Background(), l)
	}
	return r
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.League, 0, len(r.orders))
	for _, guildID := range r.orders {
		out = append(out, r.items[guildID])
	}
	return out, nil
}

func (r *LeagueRepository) GetByGuild(_ context.Context, guildID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[guildID]
	return l, ok, nil
}

func (r *LeagueRepository) Upsert(_ context.Context, l league.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[l.GuildID]; !ok {
		r.orders = append(r.orders, l.GuildID)
	}
	r.items[l.GuildID] = l
	return nil
}
