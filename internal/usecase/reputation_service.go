package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/reputation"
	"github.com/riskibarqy/inhouse-league/internal/domain/user"
	"github.com/riskibarqy/inhouse-league/internal/platform/id"
)

type ReputationService struct {
	leagues  LeagueProvider
	userRepo user.Repository
	repRepo  reputation.Repository
	idGen    id.Generator
	now      func() time.Time
}

func NewReputationService(leagues LeagueProvider, userRepo user.Repository, repRepo reputation.Repository, idGen id.Generator) *ReputationService {
	return &ReputationService{
		leagues:  leagues,
		userRepo: userRepo,
		repRepo:  repRepo,
		idGen:    idGen,
		now:      time.Now,
	}
}

type GiveReputationInput struct {
	GuildID            string
	GiverAccountID     string
	RecipientAccountID string
}

// Give appends a reputation edge in the current season and returns the
// recipient's updated summary.
func (s *ReputationService) Give(ctx context.Context, input GiveReputationInput) (reputation.Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReputationService.Give", guildAttr(input.GuildID))
	defer span.End()

	giverAccount := strings.TrimSpace(input.GiverAccountID)
	recipientAccount := strings.TrimSpace(input.RecipientAccountID)
	if giverAccount == "" || recipientAccount == "" {
		return reputation.Summary{}, fmt.Errorf("%w: giver and recipient are required", ErrInvalidInput)
	}
	if giverAccount == recipientAccount {
		return reputation.Summary{}, fmt.Errorf("%w: %w", ErrInvalidInput, reputation.ErrSelfReputation)
	}

	cfg, err := s.leagues.Ensure(ctx, input.GuildID)
	if err != nil {
		return reputation.Summary{}, err
	}

	giver, err := s.member(ctx, cfg.GuildID, giverAccount, cfg.InitialRating)
	if err != nil {
		return reputation.Summary{}, err
	}
	recipient, err := s.member(ctx, cfg.GuildID, recipientAccount, cfg.InitialRating)
	if err != nil {
		return reputation.Summary{}, err
	}

	repID, err := s.idGen.NewID()
	if err != nil {
		return reputation.Summary{}, fmt.Errorf("generate reputation id: %w", err)
	}
	rep := reputation.Reputation{
		ID:          repID,
		GuildID:     cfg.GuildID,
		SeasonID:    cfg.CurrentSeasonID,
		GiverID:     giver.ID,
		RecipientID: recipient.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := rep.Validate(); err != nil {
		return reputation.Summary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repRepo.Append(ctx, rep); err != nil {
		return reputation.Summary{}, fmt.Errorf("append reputation: %w", err)
	}

	return s.summary(ctx, cfg.GuildID, recipient.ID, cfg.CurrentSeasonID)
}

// Summary counts the reputation a member received this season and overall.
func (s *ReputationService) Summary(ctx context.Context, guildID, accountID string) (reputation.Summary, error) {
	cfg, err := s.leagues.Ensure(ctx, guildID)
	if err != nil {
		return reputation.Summary{}, err
	}

	u, exists, err := s.userRepo.GetByAccount(ctx, cfg.GuildID, strings.TrimSpace(accountID))
	if err != nil {
		return reputation.Summary{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return reputation.Summary{}, fmt.Errorf("%w: account=%s", ErrNotFound, accountID)
	}
	return s.summary(ctx, cfg.GuildID, u.ID, cfg.CurrentSeasonID)
}

func (s *ReputationService) summary(ctx context.Context, guildID, userID, seasonID string) (reputation.Summary, error) {
	sum, err := s.repRepo.CountByRecipient(ctx, guildID, userID, seasonID)
	if err != nil {
		return reputation.Summary{}, fmt.Errorf("count reputation: %w", err)
	}
	return sum, nil
}

// member loads a guild member, registering unknown ones so they can receive
// reputation before their first queue.
func (s *ReputationService) member(ctx context.Context, guildID, accountID string, initialRating int) (user.User, error) {
	u, exists, err := s.userRepo.GetByAccount(ctx, guildID, accountID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if exists {
		return u, nil
	}

	userID, err := s.idGen.NewID()
	if err != nil {
		return user.User{}, fmt.Errorf("generate user id: %w", err)
	}
	now := s.now().UTC()
	u = user.User{ID: userID, GuildID: guildID, AccountID: accountID, Rating: initialRating, CreatedAt: now, UpdatedAt: now}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// IsSelfReputation reports whether err came from a member rating themselves.
func IsSelfReputation(err error) bool {
	return errors.Is(err, reputation.ErrSelfReputation)
}
