package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/season"
)

type SeasonRepository struct {
	mu      sync.RWMutex
	seasons map[string][]season.Season
}

func NewSeasonRepository() *SeasonRepository {
	return &SeasonRepository{seasons: make(map[string][]season.Season)}
}

func (r *SeasonRepository) GetByID(_ context.Context, guildID, seasonID string) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.seasons[guildID] {
		if s.ID == seasonID {
			return s, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (r *SeasonRepository) ListByGuild(_ context.Context, guildID string) ([]season.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]season.Season(nil), r.seasons[guildID]...), nil
}

func (r *SeasonRepository) Create(_ context.Context, s season.Season) error {
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.seasons[s.GuildID] {
		if existing.ID == s.ID {
			return fmt.Errorf("season %s already exists", s.ID)
		}
	}
	r.seasons[s.GuildID] = append(r.seasons[s.GuildID], s)
	return nil
}

func (r *SeasonRepository) End(_ context.Context, guildID, seasonID string, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.seasons[guildID] {
		if s.ID != seasonID {
			continue
		}
		s.Active = false
		s.EndedAt = &endedAt
		r.seasons[guildID][i] = s
		return nil
	}
	return fmt.Errorf("season %s not found", seasonID)
}
