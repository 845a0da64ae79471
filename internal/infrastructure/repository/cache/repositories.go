package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/season"
	basecache "github.com/riskibarqy/inhouse-league/internal/platform/cache"
)

const (
	leagueListKey = "league:list"
)

type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	v, err := r.cache.GetOrLoad(ctx, leagueListKey, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]league.League(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]league.League)
	return append([]league.League(nil), items...), nil
}

func (r *LeagueRepository) GetByGuild(ctx context.Context, guildID string) (league.League, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, leagueKey(guildID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByGuild(ctx, guildID)
		if err != nil {
			return nil, err
		}
		return cachedLeague{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(cachedLeague)
	return cached.value, cached.exists, nil
}

func (r *LeagueRepository) Upsert(ctx context.Context, item league.League) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, leagueKey(item.GuildID))
	r.cache.Delete(ctx, leagueListKey)
	return nil
}

type cachedLeague struct {
	value  league.League
	exists bool
}

func leagueKey(guildID string) string {
	return basecache.Key("league", "guild", guildID)
}

type SeasonRepository struct {
	next  season.Repository
	cache *basecache.Store
}

func NewSeasonRepository(next season.Repository, cache *basecache.Store) *SeasonRepository {
	return &SeasonRepository{next: next, cache: cache}
}

func (r *SeasonRepository) GetByID(ctx context.Context, guildID, seasonID string) (season.Season, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, basecache.Key("season", "id", guildID, seasonID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, guildID, seasonID)
		if err != nil {
			return nil, err
		}
		return cachedSeason{value: item, exists: exists}, nil
	})
	if err != nil {
		return season.Season{}, false, err
	}

	cached, _ := v.(cachedSeason)
	return cloneSeason(cached.value), cached.exists, nil
}

func (r *SeasonRepository) ListByGuild(ctx context.Context, guildID string) ([]season.Season, error) {
	v, err := r.cache.GetOrLoad(ctx, seasonListKey(guildID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByGuild(ctx, guildID)
		if err != nil {
			return nil, err
		}
		return append([]season.Season(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]season.Season)
	out := make([]season.Season, 0, len(items))
	for _, item := range items {
		out = append(out, cloneSeason(item))
	}
	return out, nil
}

func (r *SeasonRepository) Create(ctx context.Context, item season.Season) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.GuildID)
	return nil
}

func (r *SeasonRepository) End(ctx context.Context, guildID, seasonID string, endedAt time.Time) error {
	if err := r.next.End(ctx, guildID, seasonID, endedAt); err != nil {
		return err
	}
	r.invalidate(ctx, guildID)
	return nil
}

func (r *SeasonRepository) invalidate(ctx context.Context, guildID string) {
	r.cache.Delete(ctx, seasonListKey(guildID))
	r.cache.DeletePrefix(ctx, basecache.Key("season", "id", guildID)+":")
}

type cachedSeason struct {
	value  season.Season
	exists bool
}

func cloneSeason(item season.Season) season.Season {
	if item.EndedAt != nil {
		endedAt := *item.EndedAt
		item.EndedAt = &endedAt
	}
	return item
}

func seasonListKey(guildID string) string {
	return basecache.Key("season", "list", guildID)
}
