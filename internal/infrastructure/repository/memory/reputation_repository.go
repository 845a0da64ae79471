package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/inhouse-league/internal/domain/reputation"
)

type ReputationRepository struct {
	mu    sync.RWMutex
	items []reputation.Reputation
}

func NewReputationRepository() *ReputationRepository {
	return &ReputationRepository{}
}

func (r *ReputationRepository) Append(_ context.Context, rep reputation.Reputation) error {
	if err := rep.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.items = append(r.items, rep)
	r.mu.Unlock()
	return nil
}

func (r *ReputationRepository) CountByRecipient(_ context.Context, guildID, recipientID, seasonID string) (reputation.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := reputation.Summary{RecipientID: recipientID}
	for _, rep := range r.items {
		if rep.GuildID != guildID || rep.RecipientID != recipientID {
			continue
		}
		sum.TotalCount++
		if rep.SeasonID == seasonID {
			sum.SeasonCount++
		}
	}
	return sum, nil
}
