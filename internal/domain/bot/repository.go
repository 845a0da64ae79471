package bot

import "context"

// Repository describes bot persistence needs from use cases.
type Repository interface {
	ListByGuild(ctx context.Context, guildID string) ([]Bot, error)
	Upsert(ctx context.Context, bot Bot) error
}
