package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/season"
	"github.com/riskibarqy/inhouse-league/internal/platform/id"
)

const firstSeasonName = "Season 1"

type LeagueService struct {
	leagueRepo league.Repository
	seasonRepo season.Repository
	idGen      id.Generator
	now        func() time.Time

	// ensureMu stops two first commands of a guild from creating two defaults.
	ensureMu sync.Mutex
}

func NewLeagueService(leagueRepo league.Repository, seasonRepo season.Repository, idGen id.Generator) *LeagueService {
	return &LeagueService{
		leagueRepo: leagueRepo,
		seasonRepo: seasonRepo,
		idGen:      idGen,
		now:        time.Now,
	}
}

// Ensure returns the guild's league, creating the default configuration and a
// first season on first use.
func (s *LeagueService) Ensure(ctx context.Context, guildID string) (league.League, error) {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return league.League{}, fmt.Errorf("%w: guild id is required", ErrInvalidInput)
	}

	cfg, exists, err := s.leagueRepo.GetByGuild(ctx, guildID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if exists {
		return cfg, nil
	}

	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()

	cfg, exists, err = s.leagueRepo.GetByGuild(ctx, guildID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if exists {
		return cfg, nil
	}

	now := s.now().UTC()
	seasonID, err := s.idGen.NewID()
	if err != nil {
		return league.League{}, fmt.Errorf("generate season id: %w", err)
	}
	first := season.Season{ID: seasonID, GuildID: guildID, Name: firstSeasonName, Active: true, StartedAt: now}
	if err := s.seasonRepo.Create(ctx, first); err != nil {
		return league.League{}, fmt.Errorf("create first season: %w", err)
	}

	cfg = league.Default(guildID)
	cfg.CurrentSeasonID = seasonID
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if err := s.leagueRepo.Upsert(ctx, cfg); err != nil {
		return league.League{}, fmt.Errorf("create default league: %w", err)
	}

	return cfg, nil
}

// UpdateLeagueInput carries optional changes; nil fields keep their value.
type UpdateLeagueInput struct {
	GuildID              string
	ReadyCheckTimeout    *time.Duration
	CaptainRankThreshold *int
	CaptainRoleRegexp    *string
	CategoryName         *string
	ChannelName          *string
	AdminRoleName        *string
	InitialRating        *int
	LobbySize            *int
	EloK                 *int
	BotWaitTimeout       *time.Duration
	DraftMode            *league.DraftMode
}

// Update changes the guild configuration. Lobbies already formed keep the
// settings they were created with.
func (s *LeagueService) Update(ctx context.Context, input UpdateLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Update", guildAttr(input.GuildID))
	defer span.End()

	cfg, err := s.Ensure(ctx, input.GuildID)
	if err != nil {
		return league.League{}, err
	}

	if input.ReadyCheckTimeout != nil {
		cfg.ReadyCheckTimeout = *input.ReadyCheckTimeout
	}
	if input.CaptainRankThreshold != nil {
		cfg.CaptainRankThreshold = *input.CaptainRankThreshold
	}
	if input.CaptainRoleRegexp != nil {
		cfg.CaptainRoleRegexp = *input.CaptainRoleRegexp
	}
	if input.CategoryName != nil {
		cfg.CategoryName = strings.TrimSpace(*input.CategoryName)
	}
	if input.ChannelName != nil {
		cfg.ChannelName = strings.TrimSpace(*input.ChannelName)
	}
	if input.AdminRoleName != nil {
		cfg.AdminRoleName = strings.TrimSpace(*input.AdminRoleName)
	}
	if input.InitialRating != nil {
		cfg.InitialRating = *input.InitialRating
	}
	if input.LobbySize != nil {
		cfg.LobbySize = *input.LobbySize
	}
	if input.EloK != nil {
		cfg.EloK = *input.EloK
	}
	if input.BotWaitTimeout != nil {
		cfg.BotWaitTimeout = *input.BotWaitTimeout
	}
	if input.DraftMode != nil {
		cfg.DraftMode = *input.DraftMode
	}

	if err := cfg.Validate(); err != nil {
		return league.League{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	cfg.UpdatedAt = s.now().UTC()
	if err := s.leagueRepo.Upsert(ctx, cfg); err != nil {
		return league.League{}, fmt.Errorf("update league: %w", err)
	}
	return cfg, nil
}

func (s *LeagueService) List(ctx context.Context) ([]league.League, error) {
	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	return leagues, nil
}
