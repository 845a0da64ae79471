package discordbot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
)

const commandTimeout = 10 * time.Second

type Config struct {
	// GuildID registers commands on one guild only; empty means global.
	GuildID string
}

// Bot connects the slash commands to a Discord gateway session.
type Bot struct {
	session    *discordgo.Session
	commands   *Commands
	guildID    string
	logger     *logging.Logger
	registered []*discordgo.ApplicationCommand
}

// NewSession creates the gateway session shared by the bot and the channel
// notifier. It is not opened until Bot.Start.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}

func New(session *discordgo.Session, cfg Config, commands *Commands, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.Default()
	}

	b := &Bot{
		session:  session,
		commands: commands,
		guildID:  cfg.GuildID,
		logger:   logger.Named("discordbot"),
	}
	session.AddHandler(b.handleInteraction)
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("discord session ready", "guilds", len(r.Guilds))
	})
	return b
}

func (b *Bot) Start(_ context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	for _, cmd := range commandDefinitions() {
		registered, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.guildID, cmd)
		if err != nil {
			return fmt.Errorf("register command %s: %w", cmd.Name, err)
		}
		b.registered = append(b.registered, registered)
	}
	b.logger.Info("slash commands registered", "count", len(b.registered), "user", b.session.State.User.Username)
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.GuildID == "" || i.Member == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	inv := toInvocation(i, stateRoleName(s))
	reply, err := b.commands.Execute(ctx, inv)
	ephemeral := false
	if err != nil {
		var known bool
		reply, known = replyForError(err)
		ephemeral = true
		if known {
			b.logger.DebugContext(ctx, "command rejected", "command", inv.Command, "guild_id", inv.GuildID, "error", err)
		} else {
			b.logger.ErrorContext(ctx, "command failed", "command", inv.Command, "guild_id", inv.GuildID, "error", err)
		}
	}

	data := &discordgo.InteractionResponseData{
		Content:         reply,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		b.logger.WarnContext(ctx, "interaction reply failed", "command", inv.Command, "error", err)
	}
}

func stateRoleName(s *discordgo.Session) func(guildID, roleID string) string {
	return func(guildID, roleID string) string {
		role, err := s.State.Role(guildID, roleID)
		if err != nil || role == nil {
			return ""
		}
		return role.Name
	}
}

// toInvocation reads the actor and options out of a guild interaction.
func toInvocation(i *discordgo.InteractionCreate, roleName func(guildID, roleID string) string) invocation {
	data := i.ApplicationCommandData()
	inv := invocation{
		Command: data.Name,
		GuildID: i.GuildID,
		Users:   make(map[string]string),
		Ints:    make(map[string]int64),
	}

	if i.Member != nil {
		if i.Member.User != nil {
			inv.Actor.AccountID = i.Member.User.ID
		}
		inv.Actor.GuildManager = i.Member.Permissions&(discordgo.PermissionManageGuild|discordgo.PermissionAdministrator) != 0
		for _, roleID := range i.Member.Roles {
			if name := roleName(i.GuildID, roleID); name != "" {
				inv.Actor.RoleNames = append(inv.Actor.RoleNames, name)
			}
		}
	}

	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionUser:
			inv.Users[opt.Name] = opt.UserValue(nil).ID
		case discordgo.ApplicationCommandOptionInteger:
			inv.Ints[opt.Name] = opt.IntValue()
		}
	}
	return inv
}
