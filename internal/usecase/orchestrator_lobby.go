package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/draft"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/domain/rating"
	"github.com/riskibarqy/inhouse-league/internal/domain/user"
	"github.com/riskibarqy/inhouse-league/internal/platform/resilience"
)

// ConfirmReady records a ready confirmation. The last one starts the draft.
func (o *Orchestrator) ConfirmReady(ctx context.Context, guildID, accountID string) (lobby.Lobby, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.ConfirmReady", guildAttr(guildID))
	defer span.End()

	guildID, err := requireGuild(guildID)
	if err != nil {
		return lobby.Lobby{}, err
	}

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return lobby.Lobby{}, err
	}
	defer g.mu.Unlock()

	l, p, ok := g.lobbyOfAccount(strings.TrimSpace(accountID))
	if !ok {
		return lobby.Lobby{}, fmt.Errorf("%w: account %s is not in a lobby", ErrNotFound, accountID)
	}

	now := o.now()
	events, err := l.MarkReady(p.UserID, now)
	if err != nil {
		return lobby.Lobby{}, o.transitionFailed(ctx, l, "mark ready", err)
	}
	o.publish(ctx, events)

	if l.AllReady() {
		if err := o.beginDraft(ctx, g, l, now); err != nil {
			return lobby.Lobby{}, err
		}
	}

	o.saveLobby(ctx, l)
	return l.Clone(), nil
}

// beginDraft seats captains and, in auto mode, finishes the draft at once.
func (o *Orchestrator) beginDraft(ctx context.Context, g *guildState, l *lobby.Lobby, now time.Time) error {
	candidates := make([]draft.Candidate, 0, len(l.Players))
	for _, p := range l.Players {
		candidates = append(candidates, draft.Candidate{UserID: p.UserID, Rating: p.Rating, CaptainRank: p.CaptainRank})
	}
	captains, err := draft.SelectCaptains(candidates, l.Settings.CaptainRankThreshold)
	if err != nil {
		return fmt.Errorf("select captains: %w", err)
	}

	events, err := l.BeginDraft(captains, now)
	if err != nil {
		return o.transitionFailed(ctx, l, "begin draft", err)
	}
	o.publish(ctx, events)

	o.logger.InfoContext(ctx, "draft started",
		"guild_id", g.id,
		"lobby_id", l.ID,
		"captain_1", captains[0],
		"captain_2", captains[1],
		"mode", string(l.Settings.DraftMode),
	)

	if l.State == lobby.StateDrafting && l.Settings.DraftMode == league.DraftModeAuto {
		if err := o.autoDraft(ctx, l, now); err != nil {
			return err
		}
	}

	if l.WaitingForBot() {
		o.assignBots(ctx, g)
	}
	return nil
}

func (o *Orchestrator) autoDraft(ctx context.Context, l *lobby.Lobby, now time.Time) error {
	state, err := l.DraftState()
	if err != nil {
		return fmt.Errorf("replay draft: %w", err)
	}

	pool := make([]draft.Candidate, 0, len(state.Remaining))
	for _, userID := range state.Remaining {
		p, _ := l.Player(userID)
		pool = append(pool, draft.Candidate{UserID: p.UserID, Rating: p.Rating, CaptainRank: p.CaptainRank})
	}

	for _, pick := range draft.AutoPicks(pool) {
		side, ok := state.Next()
		if !ok {
			break
		}
		events, err := l.Pick(state.Captains[side], pick, now)
		if err != nil {
			return o.transitionFailed(ctx, l, "auto pick", err)
		}
		o.publish(ctx, events)
		if state, err = l.DraftState(); err != nil {
			return fmt.Errorf("replay draft: %w", err)
		}
	}
	return nil
}

type PickInput struct {
	GuildID          string
	CaptainAccountID string
	PickAccountID    string
}

// PickPlayer applies a captain's pick in the captain's lobby.
func (o *Orchestrator) PickPlayer(ctx context.Context, input PickInput) (lobby.Lobby, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.PickPlayer", guildAttr(input.GuildID))
	defer span.End()

	guildID, err := requireGuild(input.GuildID)
	if err != nil {
		return lobby.Lobby{}, err
	}

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return lobby.Lobby{}, err
	}
	defer g.mu.Unlock()

	l, captain, ok := g.lobbyOfAccount(strings.TrimSpace(input.CaptainAccountID))
	if !ok {
		return lobby.Lobby{}, fmt.Errorf("%w: account %s is not in a lobby", ErrNotFound, input.CaptainAccountID)
	}

	var picked lobby.Player
	for _, p := range l.Players {
		if p.AccountID == strings.TrimSpace(input.PickAccountID) {
			picked = p
			break
		}
	}
	if picked.UserID == "" {
		return lobby.Lobby{}, fmt.Errorf("%w: account=%s", lobby.ErrUnknownPlayer, input.PickAccountID)
	}

	now := o.now()
	events, err := l.Pick(captain.UserID, picked.UserID, now)
	if err != nil {
		return lobby.Lobby{}, o.transitionFailed(ctx, l, "pick", err)
	}
	o.publish(ctx, events)

	if l.WaitingForBot() {
		o.assignBots(ctx, g)
	}
	o.saveLobby(ctx, l)
	return l.Clone(), nil
}

// StartMatch is the bot's signal that the match began.
func (o *Orchestrator) StartMatch(ctx context.Context, guildID, lobbyID, botID string) (lobby.Lobby, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.StartMatch", guildAttr(guildID))
	defer span.End()

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return lobby.Lobby{}, err
	}
	defer g.mu.Unlock()

	l, err := g.activeLobby(lobbyID)
	if err != nil {
		return lobby.Lobby{}, err
	}

	events, err := l.Start(strings.TrimSpace(botID), o.now())
	if err != nil {
		return lobby.Lobby{}, o.transitionFailed(ctx, l, "start match", err)
	}
	o.saveLobby(ctx, l)
	o.publish(ctx, events)

	o.logger.InfoContext(ctx, "match started", "guild_id", g.id, "lobby_id", l.ID, "bot_id", l.BotID)
	return l.Clone(), nil
}

type MatchOutcome struct {
	Lobby   lobby.Lobby
	Changes []user.RatingChange
}

// ReportResult completes an in-progress lobby, applies rating changes and
// frees its bot. When storing the outcome keeps failing the lobby still ends
// COMPLETED, the outcome is parked for reconciliation and the returned error
// wraps ErrPersistenceFailure.
func (o *Orchestrator) ReportResult(ctx context.Context, guildID, lobbyID string, winner lobby.Faction) (MatchOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.ReportResult", guildAttr(guildID))
	defer span.End()

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return MatchOutcome{}, err
	}
	locked := true
	defer func() {
		if locked {
			g.mu.Unlock()
		}
	}()

	l, err := g.activeLobby(lobbyID)
	if err != nil {
		return MatchOutcome{}, err
	}
	now := o.now()
	next := l.Clone()
	events, err := next.Complete(winner, now)
	if err != nil {
		return MatchOutcome{}, o.transitionFailed(ctx, l, "complete", err)
	}

	players := make([]rating.Player, 0, len(next.Players))
	for _, p := range next.Players {
		players = append(players, rating.Player{UserID: p.UserID, Rating: p.Rating, Side: p.Faction.Side()})
	}
	deltas, err := rating.Compute(players, winner.Side(), next.Settings.EloK)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("compute ratings: %w", err)
	}
	*l = next

	result := user.MatchResult{GuildID: g.id, SeasonID: l.SeasonID, LobbyID: l.ID}
	for _, d := range deltas {
		result.Changes = append(result.Changes, user.RatingChange{UserID: d.UserID, Before: d.Before, After: d.After, Won: d.Won})
	}

	released := g.archive(l)
	o.publish(ctx, events)
	outcome := MatchOutcome{Lobby: l.Clone(), Changes: result.Changes}

	if released != "" {
		o.saveBot(ctx, g, released)
		o.assignBots(ctx, g)
	}

	o.logger.InfoContext(ctx, "match completed",
		"guild_id", g.id,
		"lobby_id", l.ID,
		"winner", int(winner),
		"elo_k", l.Settings.EloK,
	)

	// Rating changes are relative and applied once per lobby, so storing them
	// does not need the guild lock and retries do not stall the queue.
	g.mu.Unlock()
	locked = false

	return outcome, o.finalize(ctx, g, outcome.Lobby, result, now)
}

// finalize stores the completed lobby and its rating changes with bounded
// retries, parking the outcome for reconciliation when they run out. It must
// be called without g.mu held.
func (o *Orchestrator) finalize(ctx context.Context, g *guildState, l lobby.Lobby, result user.MatchResult, now time.Time) error {
	attempts := 0
	err := o.persistResult(ctx, l, result, &attempts)
	if err == nil {
		return nil
	}

	g.mu.Lock()
	g.reconcile = append(g.reconcile, PendingResult{
		Lobby:     l,
		Result:    result,
		LastError: err.Error(),
		FailedAt:  now,
		Attempts:  attempts,
	})
	g.mu.Unlock()

	o.logger.ErrorContext(ctx, "persist match result exhausted retries",
		"guild_id", g.id,
		"lobby_id", l.ID,
		"attempts", attempts,
		"error", err,
	)
	return fmt.Errorf("%w: lobby=%s: %w", ErrPersistenceFailure, l.ID, err)
}

func (o *Orchestrator) persistResult(ctx context.Context, l lobby.Lobby, result user.MatchResult, attempts *int) error {
	err := resilience.Retry(ctx, o.cfg.Persist, o.sleep, func(ctx context.Context, attempt int) error {
		*attempts = attempt
		applied, err := o.userRepo.ApplyMatchResult(ctx, result)
		if err != nil {
			o.logger.WarnContext(ctx, "apply match result failed", "lobby_id", l.ID, "attempt", attempt, "error", err)
			return err
		}
		if !applied {
			o.logger.InfoContext(ctx, "match result already applied", "lobby_id", l.ID)
		}
		if err := o.lobbies.Save(ctx, l); err != nil {
			o.logger.WarnContext(ctx, "save completed lobby failed", "lobby_id", l.ID, "attempt", attempt, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if o.onFinalized != nil {
		o.onFinalized(ctx, result)
	}
	return nil
}

// AbortLobby cancels a lobby waiting for a bot or in progress.
func (o *Orchestrator) AbortLobby(ctx context.Context, guildID, lobbyID string) (lobby.Lobby, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.AbortLobby", guildAttr(guildID))
	defer span.End()

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return lobby.Lobby{}, err
	}
	defer g.mu.Unlock()

	l, err := g.activeLobby(lobbyID)
	if err != nil {
		return lobby.Lobby{}, err
	}

	events, err := l.Cancel(lobby.ReasonMatchAborted, o.now())
	if err != nil {
		return lobby.Lobby{}, o.transitionFailed(ctx, l, "abort", err)
	}
	o.closeLobby(ctx, g, l, events)

	o.logger.InfoContext(ctx, "lobby aborted", "guild_id", g.id, "lobby_id", l.ID)
	return l.Clone(), nil
}

// closeLobby archives a cancelled lobby and hands its bot to the next waiter.
func (o *Orchestrator) closeLobby(ctx context.Context, g *guildState, l *lobby.Lobby, events []lobby.Event) {
	released := g.archive(l)
	o.saveLobby(ctx, l)
	o.publish(ctx, events)
	if released != "" {
		o.saveBot(ctx, g, released)
		o.assignBots(ctx, g)
	}
}
