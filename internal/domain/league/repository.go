package league

import "context"

// Repository describes league persistence needs from use cases.
type Repository interface {
	GetByGuild(ctx context.Context, guildID string) (League, bool, error)
	Upsert(ctx context.Context, league League) error
	List(ctx context.Context) ([]League, error)
}
