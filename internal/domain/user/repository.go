package user

import (
	"context"
	"time"
)

// Repository describes user persistence needs from use cases.
type Repository interface {
	GetByAccount(ctx context.Context, guildID, accountID string) (User, bool, error)
	GetByIDs(ctx context.Context, guildID string, userIDs []string) ([]User, error)
	Create(ctx context.Context, user User) error
	SetBanExpiry(ctx context.Context, guildID, userID string, expiresAt *time.Time) error
	// ApplyMatchResult stores all rating changes of a lobby atomically.
	// It reports false when the lobby result was already applied.
	ApplyMatchResult(ctx context.Context, result MatchResult) (bool, error)
	ListStandings(ctx context.Context, guildID, seasonID string, limit int) ([]Standing, error)
}
