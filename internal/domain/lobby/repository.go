package lobby

import "context"

// Repository persists lobby snapshots so guild state can be rebuilt after restart.
type Repository interface {
	Save(ctx context.Context, lobby Lobby) error
	GetByID(ctx context.Context, guildID, lobbyID string) (Lobby, bool, error)
	ListActive(ctx context.Context) ([]Lobby, error)
	ListByGuild(ctx context.Context, guildID string, limit int) ([]Lobby, error)
}
