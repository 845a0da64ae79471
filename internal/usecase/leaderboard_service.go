package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/inhouse-league/internal/domain/user"
	"github.com/riskibarqy/inhouse-league/internal/platform/cache"
)

const (
	defaultLeaderboardLimit = 25
	maxLeaderboardLimit     = 200
	leaderboardCachePrefix  = "leaderboard"
)

// LeaderboardService serves per-season standings from a short lived cache
// that completed matches invalidate.
type LeaderboardService struct {
	leagues  LeagueProvider
	userRepo user.Repository
	cache    *cache.Store
}

func NewLeaderboardService(leagues LeagueProvider, userRepo user.Repository, store *cache.Store) *LeaderboardService {
	return &LeaderboardService{leagues: leagues, userRepo: userRepo, cache: store}
}

// Standings returns the leaderboard of seasonID, or of the current season
// when seasonID is empty.
func (s *LeaderboardService) Standings(ctx context.Context, guildID, seasonID string, limit int) ([]user.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Standings", guildAttr(guildID))
	defer span.End()

	cfg, err := s.leagues.Ensure(ctx, guildID)
	if err != nil {
		return nil, err
	}
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		seasonID = cfg.CurrentSeasonID
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	key := cache.Key(leaderboardCachePrefix, cfg.GuildID, seasonID, fmt.Sprint(limit))
	value, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.userRepo.ListStandings(ctx, cfg.GuildID, seasonID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}

	standings, _ := value.([]user.Standing)
	out := make([]user.Standing, len(standings))
	copy(out, standings)
	return out, nil
}

// Invalidate drops every cached leaderboard of the guild.
func (s *LeaderboardService) Invalidate(ctx context.Context, guildID string) {
	s.cache.DeletePrefix(ctx, cache.Key(leaderboardCachePrefix, guildID)+":")
}

// OnMatchFinalized matches Orchestrator.OnMatchFinalized.
func (s *LeaderboardService) OnMatchFinalized(ctx context.Context, result user.MatchResult) {
	s.Invalidate(ctx, result.GuildID)
}
