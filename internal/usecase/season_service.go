package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/season"
	"github.com/riskibarqy/inhouse-league/internal/platform/id"
)

type SeasonService struct {
	leagues    *LeagueService
	leagueRepo league.Repository
	seasonRepo season.Repository
	idGen      id.Generator
	now        func() time.Time
}

func NewSeasonService(leagues *LeagueService, leagueRepo league.Repository, seasonRepo season.Repository, idGen id.Generator) *SeasonService {
	return &SeasonService{
		leagues:    leagues,
		leagueRepo: leagueRepo,
		seasonRepo: seasonRepo,
		idGen:      idGen,
		now:        time.Now,
	}
}

// StartSeason ends the current season and points the league at a new one.
// Lobbies already formed stay attached to the season they started in.
func (s *SeasonService) StartSeason(ctx context.Context, guildID, name string) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.StartSeason", guildAttr(guildID))
	defer span.End()

	cfg, err := s.leagues.Ensure(ctx, guildID)
	if err != nil {
		return season.Season{}, err
	}

	now := s.now().UTC()
	name = strings.TrimSpace(name)
	if name == "" {
		seasons, err := s.seasonRepo.ListByGuild(ctx, cfg.GuildID)
		if err != nil {
			return season.Season{}, fmt.Errorf("list seasons: %w", err)
		}
		name = fmt.Sprintf("Season %d", len(seasons)+1)
	}

	seasonID, err := s.idGen.NewID()
	if err != nil {
		return season.Season{}, fmt.Errorf("generate season id: %w", err)
	}
	next := season.Season{ID: seasonID, GuildID: cfg.GuildID, Name: name, Active: true, StartedAt: now}
	if err := next.Validate(); err != nil {
		return season.Season{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if cfg.CurrentSeasonID != "" {
		if err := s.seasonRepo.End(ctx, cfg.GuildID, cfg.CurrentSeasonID, now); err != nil {
			return season.Season{}, fmt.Errorf("end season %s: %w", cfg.CurrentSeasonID, err)
		}
	}
	if err := s.seasonRepo.Create(ctx, next); err != nil {
		return season.Season{}, fmt.Errorf("create season: %w", err)
	}

	cfg.CurrentSeasonID = next.ID
	cfg.UpdatedAt = now
	if err := s.leagueRepo.Upsert(ctx, cfg); err != nil {
		return season.Season{}, fmt.Errorf("point league at season: %w", err)
	}

	return next, nil
}

// Current returns the league's current season.
func (s *SeasonService) Current(ctx context.Context, guildID string) (season.Season, error) {
	cfg, err := s.leagues.Ensure(ctx, guildID)
	if err != nil {
		return season.Season{}, err
	}

	current, exists, err := s.seasonRepo.GetByID(ctx, cfg.GuildID, cfg.CurrentSeasonID)
	if err != nil {
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return season.Season{}, fmt.Errorf("%w: season=%s", ErrNotFound, cfg.CurrentSeasonID)
	}
	return current, nil
}

func (s *SeasonService) List(ctx context.Context, guildID string) ([]season.Season, error) {
	cfg, err := s.leagues.Ensure(ctx, guildID)
	if err != nil {
		return nil, err
	}
	seasons, err := s.seasonRepo.ListByGuild(ctx, cfg.GuildID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	return seasons, nil
}
