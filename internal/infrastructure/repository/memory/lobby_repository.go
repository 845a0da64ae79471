package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
)

type LobbyRepository struct {
	mu      sync.RWMutex
	lobbies map[string]lobby.Lobby
}

func NewLobbyRepository() *LobbyRepository {
	return &LobbyRepository{lobbies: make(map[string]lobby.Lobby)}
}

func (r *LobbyRepository) Save(_ context.Context, l lobby.Lobby) error {
	if err := l.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.lobbies[l.ID] = l.Clone()
	r.mu.Unlock()
	return nil
}

func (r *LobbyRepository) GetByID(_ context.Context, guildID, lobbyID string) (lobby.Lobby, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lobbies[lobbyID]
	if !ok || l.GuildID != guildID {
		return lobby.Lobby{}, false, nil
	}
	return l.Clone(), true, nil
}

func (r *LobbyRepository) ListActive(_ context.Context) ([]lobby.Lobby, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lobby.Lobby, 0)
	for _, l := range r.lobbies {
		if !l.State.Terminal() {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *LobbyRepository) ListByGuild(_ context.Context, guildID string, limit int) ([]lobby.Lobby, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lobby.Lobby, 0)
	for _, l := range r.lobbies {
		if l.GuildID == guildID {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
