package discordbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/inhouse-league/internal/domain/draft"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/domain/queue"
	"github.com/riskibarqy/inhouse-league/internal/domain/reputation"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

const leaderboardSize = 10

// invocation is a slash command stripped of transport details.
type invocation struct {
	Command string
	GuildID string
	Actor   league.Actor
	// Users maps user option names to account ids.
	Users map[string]string
	Ints  map[string]int64
}

func (inv invocation) user(name string) string {
	return strings.TrimSpace(inv.Users[name])
}

func (inv invocation) integer(name string, fallback int64) int64 {
	if v, ok := inv.Ints[name]; ok {
		return v
	}
	return fallback
}

// Commands runs slash commands against the orchestrator and league services.
type Commands struct {
	orchestrator *usecase.Orchestrator
	leagues      *usecase.LeagueService
	reputation   *usecase.ReputationService
	leaderboard  *usecase.LeaderboardService
	logger       *logging.Logger
}

func NewCommands(
	orchestrator *usecase.Orchestrator,
	leagues *usecase.LeagueService,
	reputation *usecase.ReputationService,
	leaderboard *usecase.LeaderboardService,
	logger *logging.Logger,
) *Commands {
	if logger == nil {
		logger = logging.Default()
	}
	return &Commands{
		orchestrator: orchestrator,
		leagues:      leagues,
		reputation:   reputation,
		leaderboard:  leaderboard,
		logger:       logger.Named("discordbot"),
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "queue-join",
			Description: "Join the inhouse queue",
		},
		{
			Name:        "queue-leave",
			Description: "Leave the inhouse queue",
		},
		{
			Name:        "queue-ban",
			Description: "Kick a player from the inhouse queue and tempban them",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "The player to ban",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "timeout",
					Description: "How many minutes to timeout the player",
					Required:    false,
				},
			},
		},
		{
			Name:        "ready",
			Description: "Confirm you are ready for your lobby",
		},
		{
			Name:        "pick",
			Description: "Draft a player onto your team",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "player",
					Description: "The player to pick",
					Required:    true,
				},
			},
		},
		{
			Name:        "rep",
			Description: "Give reputation to another player",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "The player to commend",
					Required:    true,
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the current season standings",
		},
	}
}

// Execute runs one command and returns the reply text.
func (c *Commands) Execute(ctx context.Context, inv invocation) (string, error) {
	switch inv.Command {
	case "queue-join":
		return c.queueJoin(ctx, inv)
	case "queue-leave":
		return c.queueLeave(ctx, inv)
	case "queue-ban":
		return c.queueBan(ctx, inv)
	case "ready":
		return c.ready(ctx, inv)
	case "pick":
		return c.pick(ctx, inv)
	case "rep":
		return c.rep(ctx, inv)
	case "leaderboard":
		return c.standings(ctx, inv)
	default:
		return "", fmt.Errorf("%w: unknown command %q", usecase.ErrInvalidInput, inv.Command)
	}
}

func (c *Commands) queueJoin(ctx context.Context, inv invocation) (string, error) {
	result, err := c.orchestrator.JoinQueue(ctx, usecase.JoinQueueInput{
		GuildID:   inv.GuildID,
		AccountID: inv.Actor.AccountID,
		RoleNames: inv.Actor.RoleNames,
	})
	if err != nil {
		return "", err
	}
	if len(result.Formed) > 0 {
		return "Queue popped! Check the league channel and type `/ready`.", nil
	}
	return fmt.Sprintf("You joined the queue. %d in queue.", result.QueueLen), nil
}

func (c *Commands) queueLeave(ctx context.Context, inv invocation) (string, error) {
	left, err := c.orchestrator.LeaveQueue(ctx, inv.GuildID, inv.Actor.AccountID)
	if err != nil {
		return "", err
	}
	if !left {
		return "You are not in the queue.", nil
	}
	return "You left the queue.", nil
}

func (c *Commands) queueBan(ctx context.Context, inv invocation) (string, error) {
	cfg, err := c.leagues.Ensure(ctx, inv.GuildID)
	if err != nil {
		return "", err
	}
	if !league.IsAdmin(cfg, inv.Actor) {
		return "", fmt.Errorf("%w: requires the %s role", usecase.ErrForbidden, cfg.AdminRoleName)
	}

	target := inv.user("member")
	minutes := inv.integer("timeout", 0)
	if _, err := c.orchestrator.BanQueueAndKick(ctx, usecase.BanInput{
		GuildID:   inv.GuildID,
		AccountID: target,
		Minutes:   int(minutes),
	}); err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			return "User not found. They have to join the queue once before they can be banned.", nil
		}
		return "", err
	}

	c.logger.InfoContext(ctx, "queue ban issued", "guild_id", inv.GuildID, "admin", inv.Actor.AccountID, "target", target, "minutes", minutes)
	return fmt.Sprintf("User kicked from queue and tempbanned for %d minutes.", minutes), nil
}

func (c *Commands) ready(ctx context.Context, inv invocation) (string, error) {
	l, err := c.orchestrator.ConfirmReady(ctx, inv.GuildID, inv.Actor.AccountID)
	if err != nil {
		return "", err
	}
	if l.State != lobby.StateReadyCheck {
		return "Everyone is ready!", nil
	}

	ready := 0
	for _, p := range l.Players {
		if p.Ready {
			ready++
		}
	}
	return fmt.Sprintf("You are ready. %d/%d players ready.", ready, len(l.Players)), nil
}

func (c *Commands) pick(ctx context.Context, inv invocation) (string, error) {
	target := inv.user("player")
	if _, err := c.orchestrator.PickPlayer(ctx, usecase.PickInput{
		GuildID:          inv.GuildID,
		CaptainAccountID: inv.Actor.AccountID,
		PickAccountID:    target,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s picked %s.", mention(inv.Actor.AccountID), mention(target)), nil
}

func (c *Commands) rep(ctx context.Context, inv invocation) (string, error) {
	target := inv.user("member")
	summary, err := c.reputation.Give(ctx, usecase.GiveReputationInput{
		GuildID:            inv.GuildID,
		GiverAccountID:     inv.Actor.AccountID,
		RecipientAccountID: target,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s now has %d reputation this season (%d total).", mention(target), summary.SeasonCount, summary.TotalCount), nil
}

func (c *Commands) standings(ctx context.Context, inv invocation) (string, error) {
	rows, err := c.leaderboard.Standings(ctx, inv.GuildID, "", leaderboardSize)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No matches played this season yet.", nil
	}

	var b strings.Builder
	b.WriteString("**Leaderboard**")
	for i, row := range rows {
		fmt.Fprintf(&b, "\n%d. %s %d (%d-%d)", i+1, mention(row.AccountID), row.Rating, row.Wins, row.Losses)
	}
	return b.String(), nil
}

// replyForError turns a command failure into the text shown to the member.
// Unknown failures are reported as internal.
func replyForError(err error) (string, bool) {
	switch {
	case errors.Is(err, usecase.ErrForbidden):
		return "You do not have permission to do that.", true
	case errors.Is(err, queue.ErrAlreadyQueued):
		return "You are already in the queue or a lobby.", true
	case errors.Is(err, queue.ErrBanned):
		return "You are banned from the queue.", true
	case errors.Is(err, reputation.ErrSelfReputation):
		return "You cannot give reputation to yourself.", true
	case errors.Is(err, draft.ErrNotYourTurn):
		return "It is not your turn to pick.", true
	case errors.Is(err, draft.ErrInvalidPick),
		errors.Is(err, draft.ErrDraftComplete):
		return "That player cannot be picked.", true
	case errors.Is(err, lobby.ErrReadyCheckTimeout):
		return "The ready check already timed out.", true
	case errors.Is(err, lobby.ErrInvalidTransition),
		errors.Is(err, lobby.ErrUnknownPlayer),
		errors.Is(err, usecase.ErrNotFound):
		return "You are not in a lobby that accepts this command.", true
	case errors.Is(err, usecase.ErrInvalidInput):
		return "That command is missing something.", true
	default:
		return "Something went wrong. Please try again.", false
	}
}

func mention(accountID string) string {
	return "<@" + accountID + ">"
}
