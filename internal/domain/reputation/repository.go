package reputation

import "context"

// Repository is append-only: reputations are never updated or deleted.
type Repository interface {
	Append(ctx context.Context, rep Reputation) error
	CountByRecipient(ctx context.Context, guildID, recipientID, seasonID string) (Summary, error)
}
