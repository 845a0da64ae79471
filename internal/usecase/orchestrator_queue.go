package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/domain/queue"
	"github.com/riskibarqy/inhouse-league/internal/domain/user"
)

type JoinQueueInput struct {
	GuildID   string
	AccountID string
	// RoleNames are the member's role names, used to derive the captain rank.
	RoleNames []string
}

type JoinQueueResult struct {
	Position int
	QueueLen int
	// Formed holds the lobbies this join completed, if any.
	Formed []lobby.Lobby
}

// JoinQueue admits a user to the guild queue and forms lobbies when it fills.
func (o *Orchestrator) JoinQueue(ctx context.Context, input JoinQueueInput) (JoinQueueResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.JoinQueue", guildAttr(input.GuildID))
	defer span.End()

	guildID, err := requireGuild(input.GuildID)
	if err != nil {
		return JoinQueueResult{}, err
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return JoinQueueResult{}, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}

	cfg, err := o.leagues.Ensure(ctx, guildID)
	if err != nil {
		return JoinQueueResult{}, err
	}

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return JoinQueueResult{}, err
	}
	defer g.mu.Unlock()

	u, err := o.ensureUser(ctx, cfg, accountID)
	if err != nil {
		return JoinQueueResult{}, err
	}

	now := o.now()
	if expiresAt, banned := o.activeBan(g, u, now); banned {
		return JoinQueueResult{}, fmt.Errorf("%w: until %s", queue.ErrBanned, expiresAt.UTC().Format(time.RFC3339))
	}
	if lobbyID, busy := g.members[u.ID]; busy {
		return JoinQueueResult{}, fmt.Errorf("%w: user is in lobby %s", queue.ErrAlreadyQueued, lobbyID)
	}

	pos, err := g.queue.Join(queue.Entry{
		UserID:      u.ID,
		AccountID:   u.AccountID,
		Rating:      u.Rating,
		CaptainRank: cfg.CaptainRank(input.RoleNames),
		JoinedAt:    now,
	})
	if err != nil {
		return JoinQueueResult{}, err
	}

	o.logger.InfoContext(ctx, "user joined queue",
		"guild_id", guildID,
		"user_id", u.ID,
		"position", pos,
	)

	formed := o.formLobbies(ctx, g, cfg)
	return JoinQueueResult{Position: pos, QueueLen: g.queue.Len(), Formed: formed}, nil
}

// LeaveQueue removes a user from the queue. Absent users are not an error.
func (o *Orchestrator) LeaveQueue(ctx context.Context, guildID, accountID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.LeaveQueue", guildAttr(guildID))
	defer span.End()

	guildID, err := requireGuild(guildID)
	if err != nil {
		return false, err
	}

	u, exists, err := o.userRepo.GetByAccount(ctx, guildID, strings.TrimSpace(accountID))
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return false, nil
	}

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return false, err
	}
	defer g.mu.Unlock()

	left := g.queue.Leave(u.ID)
	if left {
		o.logger.InfoContext(ctx, "user left queue", "guild_id", guildID, "user_id", u.ID)
	}
	return left, nil
}

type BanInput struct {
	GuildID   string
	AccountID string
	// Minutes of re-join restriction; zero is a plain kick.
	Minutes int
}

type BanResult struct {
	Evicted   bool
	ExpiresAt *time.Time
	// CancelledLobbyID is set when the user was pulled out of a ready check.
	CancelledLobbyID string
}

// BanQueueAndKick evicts a user from the queue and, for a positive duration,
// blocks re-joining until the ban expires. Only accounts that have joined the
// league before can be banned. A user sitting in a ready check is
// removed from it, which cancels that lobby and puts the others back at the
// front of the queue. Lobbies past the ready check are left alone.
func (o *Orchestrator) BanQueueAndKick(ctx context.Context, input BanInput) (BanResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.BanQueueAndKick", guildAttr(input.GuildID))
	defer span.End()

	guildID, err := requireGuild(input.GuildID)
	if err != nil {
		return BanResult{}, err
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return BanResult{}, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if input.Minutes < 0 {
		return BanResult{}, fmt.Errorf("%w: ban minutes must be >= 0", ErrInvalidInput)
	}

	cfg, err := o.leagues.Ensure(ctx, guildID)
	if err != nil {
		return BanResult{}, err
	}

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return BanResult{}, err
	}
	defer g.mu.Unlock()

	u, exists, err := o.userRepo.GetByAccount(ctx, guildID, accountID)
	if err != nil {
		return BanResult{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return BanResult{}, fmt.Errorf("%w: account=%s", ErrNotFound, accountID)
	}

	now := o.now()
	result := BanResult{Evicted: g.queue.Leave(u.ID)}

	if lobbyID, inLobby := g.members[u.ID]; inLobby {
		l := g.lobbies[lobbyID]
		if l.State == lobby.StateFormed || l.State == lobby.StateReadyCheck {
			rest, events, err := l.RemovePlayer(u.ID, now)
			if err != nil {
				return BanResult{}, o.transitionFailed(ctx, l, "remove player", err)
			}
			released := g.archive(l)
			g.queue.PushFront(entriesOf(rest))
			o.saveLobby(ctx, l)
			o.publish(ctx, events)
			if released != "" {
				o.saveBot(ctx, g, released)
			}
			result.Evicted = true
			result.CancelledLobbyID = l.ID

			o.logger.InfoContext(ctx, "lobby cancelled by ban",
				"guild_id", guildID,
				"lobby_id", l.ID,
				"user_id", u.ID,
			)
		}
	}

	if input.Minutes > 0 {
		expiresAt := now.Add(time.Duration(input.Minutes) * time.Minute)
		g.bans.Ban(u.ID, expiresAt)
		result.ExpiresAt = &expiresAt
		if err := o.userRepo.SetBanExpiry(ctx, guildID, u.ID, &expiresAt); err != nil {
			return result, fmt.Errorf("%w: store ban: %v", ErrDependencyUnavailable, err)
		}
	}

	if result.CancelledLobbyID != "" {
		o.formLobbies(ctx, g, cfg)
	}

	o.logger.InfoContext(ctx, "user kicked from queue",
		"guild_id", guildID,
		"user_id", u.ID,
		"minutes", input.Minutes,
		"evicted", result.Evicted,
	)
	return result, nil
}

// ensureUser loads the guild member or registers them with the initial rating.
func (o *Orchestrator) ensureUser(ctx context.Context, cfg league.League, accountID string) (user.User, error) {
	u, exists, err := o.userRepo.GetByAccount(ctx, cfg.GuildID, accountID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if exists {
		return u, nil
	}

	userID, err := o.idGen.NewID()
	if err != nil {
		return user.User{}, fmt.Errorf("generate user id: %w", err)
	}
	now := o.now().UTC()
	u = user.User{
		ID:        userID,
		GuildID:   cfg.GuildID,
		AccountID: accountID,
		Rating:    cfg.InitialRating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return user.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := o.userRepo.Create(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// activeBan consults the in-memory registry first, then the stored expiry,
// which survives restarts.
func (o *Orchestrator) activeBan(g *guildState, u user.User, now time.Time) (time.Time, bool) {
	if expiresAt, ok := g.bans.Active(u.ID, now); ok {
		return expiresAt, true
	}
	if u.BannedAt(now) {
		g.bans.Ban(u.ID, *u.BanExpiresAt)
		return *u.BanExpiresAt, true
	}
	return time.Time{}, false
}

// formLobbies drains full lobbies off the queue and opens their ready checks.
func (o *Orchestrator) formLobbies(ctx context.Context, g *guildState, cfg league.League) []lobby.Lobby {
	var formed []lobby.Lobby
	settings := lobby.SettingsFrom(cfg)

	for g.queue.Len() >= settings.Size {
		entries := g.queue.Drain(settings.Size)
		if entries == nil {
			break
		}

		l, err := o.openLobby(ctx, g, cfg, settings, entries)
		if err != nil {
			g.queue.PushFront(entries)
			o.logger.ErrorContext(ctx, "form lobby failed", "guild_id", g.id, "error", err)
			break
		}
		formed = append(formed, l.Clone())
	}
	return formed
}

func (o *Orchestrator) openLobby(ctx context.Context, g *guildState, cfg league.League, settings lobby.Settings, entries []queue.Entry) (*lobby.Lobby, error) {
	lobbyID, err := o.idGen.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate lobby id: %w", err)
	}

	players := make([]lobby.Player, 0, len(entries))
	for _, e := range entries {
		players = append(players, lobby.Player{
			UserID:      e.UserID,
			AccountID:   e.AccountID,
			Rating:      e.Rating,
			CaptainRank: e.CaptainRank,
			QueuedAt:    e.JoinedAt,
		})
	}

	now := o.now()
	l, events, err := lobby.New(lobbyID, g.id, cfg.CurrentSeasonID, settings, players, now)
	if err != nil {
		return nil, err
	}
	started, err := l.StartReadyCheck(now)
	if err != nil {
		return nil, err
	}

	g.register(&l)
	o.saveLobby(ctx, &l)
	o.publish(ctx, append(events, started...))

	o.logger.InfoContext(ctx, "lobby formed",
		"guild_id", g.id,
		"lobby_id", l.ID,
		"players", len(players),
		"ready_deadline", l.ReadyDeadline,
	)
	return &l, nil
}

func entriesOf(players []lobby.Player) []queue.Entry {
	out := make([]queue.Entry, 0, len(players))
	for _, p := range players {
		out = append(out, queue.Entry{
			UserID:      p.UserID,
			AccountID:   p.AccountID,
			Rating:      p.Rating,
			CaptainRank: p.CaptainRank,
			JoinedAt:    p.QueuedAt,
		})
	}
	return out
}
