package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/inhouse-league/internal/domain/bot"
)

type BotRepository struct {
	mu     sync.RWMutex
	bots   map[string]bot.Bot
	orders []string
}

func NewBotRepository(bots ...bot.Bot) *BotRepository {
	r := &BotRepository{bots: make(map[string]bot.Bot)}
	for _, b := range bots {
		_ = r.Upsert(context.Background(), b)
	}
	return r
}

func (r *BotRepository) ListByGuild(_ context.Context, guildID string) ([]bot.Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]bot.Bot, 0)
	for _, botID := range r.orders {
		if b := r.bots[botID]; b.GuildID == guildID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BotRepository) Upsert(_ context.Context, b bot.Bot) error {
	if err := b.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bots[b.ID]; !ok {
		r.orders = append(r.orders, b.ID)
	}
	r.bots[b.ID] = b
	return nil
}
