package season

import (
	"context"
	"time"
)

// Repository describes season persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, guildID, seasonID string) (Season, bool, error)
	ListByGuild(ctx context.Context, guildID string) ([]Season, error)
	Create(ctx context.Context, season Season) error
	End(ctx context.Context, guildID, seasonID string, endedAt time.Time) error
}
