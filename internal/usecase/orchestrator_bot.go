package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/inhouse-league/internal/domain/bot"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
)

type RegisterBotInput struct {
	GuildID string
	BotID   string
	Name    string
}

// RegisterBot adds a hosting bot to the guild pool or renames a known one.
func (o *Orchestrator) RegisterBot(ctx context.Context, input RegisterBotInput) (bot.Bot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.RegisterBot", guildAttr(input.GuildID))
	defer span.End()

	guildID, err := requireGuild(input.GuildID)
	if err != nil {
		return bot.Bot{}, err
	}

	botID := strings.TrimSpace(input.BotID)
	if botID == "" {
		if botID, err = o.idGen.NewID(); err != nil {
			return bot.Bot{}, fmt.Errorf("generate bot id: %w", err)
		}
	}
	b := bot.Bot{ID: botID, GuildID: guildID, Name: strings.TrimSpace(input.Name)}
	if err := b.Validate(); err != nil {
		return bot.Bot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return bot.Bot{}, err
	}
	defer g.mu.Unlock()

	g.bots.Add(b)
	stored, _ := g.bots.Get(botID)
	if err := o.botRepo.Upsert(ctx, stored); err != nil {
		return bot.Bot{}, fmt.Errorf("store bot: %w", err)
	}

	o.logger.InfoContext(ctx, "bot registered", "guild_id", guildID, "bot_id", botID)
	o.assignBots(ctx, g)

	stored, _ = g.bots.Get(botID)
	return stored, nil
}

type BotFailureResult struct {
	Bot bot.Bot
	// Lobby is the lobby the bot was serving, if any.
	Lobby *lobby.Lobby
}

// ReportBotFailure takes a bot out of rotation. A lobby still waiting to
// start asks for another bot; a lobby in progress is cancelled.
func (o *Orchestrator) ReportBotFailure(ctx context.Context, guildID, botID string) (BotFailureResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.ReportBotFailure", guildAttr(guildID))
	defer span.End()

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return BotFailureResult{}, err
	}
	defer g.mu.Unlock()

	lobbyID, err := g.bots.MarkFailed(botID)
	if err != nil {
		return BotFailureResult{}, o.botErr(err)
	}
	o.saveBot(ctx, g, botID)

	o.logger.WarnContext(ctx, "bot marked failed", "guild_id", g.id, "bot_id", botID, "lobby_id", lobbyID)

	var affected *lobby.Lobby
	if l, ok := g.lobbies[lobbyID]; ok && l.BotID == botID {
		now := o.now()
		switch l.State {
		case lobby.StateBotAssignment:
			if err := l.DropBot(now); err != nil {
				return BotFailureResult{}, o.transitionFailed(ctx, l, "drop bot", err)
			}
			o.saveLobby(ctx, l)
			o.assignBots(ctx, g)
		case lobby.StateInProgress:
			events, err := l.Cancel(lobby.ReasonBotFailure, now)
			if err != nil {
				return BotFailureResult{}, o.transitionFailed(ctx, l, "cancel on bot failure", err)
			}
			o.closeLobby(ctx, g, l, events)
		}
		snapshot := l.Clone()
		affected = &snapshot
	}

	b, _ := g.bots.Get(botID)
	return BotFailureResult{Bot: b, Lobby: affected}, nil
}

// RestoreBot returns a failed bot to rotation after an external health check.
func (o *Orchestrator) RestoreBot(ctx context.Context, guildID, botID string) (bot.Bot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.RestoreBot", guildAttr(guildID))
	defer span.End()

	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return bot.Bot{}, err
	}
	defer g.mu.Unlock()

	if err := g.bots.ClearFailure(botID); err != nil {
		return bot.Bot{}, o.botErr(err)
	}
	o.saveBot(ctx, g, botID)
	o.logger.InfoContext(ctx, "bot restored", "guild_id", g.id, "bot_id", botID)

	o.assignBots(ctx, g)
	b, _ := g.bots.Get(botID)
	return b, nil
}

// assignBots hands free bots to lobbies waiting for one, oldest lobby first.
func (o *Orchestrator) assignBots(ctx context.Context, g *guildState) {
	now := o.now()
	for _, lobbyID := range g.order {
		l := g.lobbies[lobbyID]
		if !l.WaitingForBot() {
			continue
		}

		b, err := g.bots.Acquire(l.ID)
		if errors.Is(err, bot.ErrNoBotAvailable) {
			o.logger.DebugContext(ctx, "lobby waiting for bot", "guild_id", g.id, "lobby_id", l.ID)
			return
		}
		if err != nil {
			o.logger.ErrorContext(ctx, "acquire bot failed", "guild_id", g.id, "lobby_id", l.ID, "error", err)
			return
		}

		events, err := l.AssignBot(b.ID, now)
		if err != nil {
			g.bots.Release(b.ID)
			_ = o.transitionFailed(ctx, l, "assign bot", err)
			continue
		}
		o.saveBot(ctx, g, b.ID)
		o.saveLobby(ctx, l)
		o.publish(ctx, events)

		o.logger.InfoContext(ctx, "bot assigned", "guild_id", g.id, "lobby_id", l.ID, "bot_id", b.ID)
	}
}

func (o *Orchestrator) botErr(err error) error {
	if errors.Is(err, bot.ErrUnknownBot) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
