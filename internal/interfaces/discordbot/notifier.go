package discordbot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

// ChannelSender is the part of *discordgo.Session the notifier posts through.
type ChannelSender interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts lobby lifecycle events to each league's text channel.
type Notifier struct {
	sender  ChannelSender
	leagues usecase.LeagueProvider
	logger  *logging.Logger

	mu       sync.Mutex
	channels map[string]string
}

func NewNotifier(sender ChannelSender, leagues usecase.LeagueProvider, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{
		sender:   sender,
		leagues:  leagues,
		logger:   logger.Named("discord-notifier"),
		channels: make(map[string]string),
	}
}

func (n *Notifier) Deliver(ctx context.Context, event lobby.Event) error {
	content := formatEvent(event)
	if content == "" {
		return nil
	}

	channelID, err := n.channel(ctx, event.GuildID)
	if err != nil {
		return err
	}

	_, err = n.sender.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		n.forget(event.GuildID)
		return fmt.Errorf("post %s to channel %s: %w", event.Type, channelID, err)
	}
	return nil
}

func (n *Notifier) channel(ctx context.Context, guildID string) (string, error) {
	cfg, err := n.leagues.Ensure(ctx, guildID)
	if err != nil {
		return "", err
	}
	key := guildID + ":" + cfg.ChannelName

	n.mu.Lock()
	channelID, ok := n.channels[key]
	n.mu.Unlock()
	if ok {
		return channelID, nil
	}

	channels, err := n.sender.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("list guild channels: %w", err)
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(ch.Name, cfg.ChannelName) {
			n.mu.Lock()
			n.channels[key] = ch.ID
			n.mu.Unlock()
			return ch.ID, nil
		}
	}

	n.logger.WarnContext(ctx, "league channel missing", "guild_id", guildID, "channel", cfg.ChannelName)
	return "", fmt.Errorf("%w: channel %q in guild %s", usecase.ErrNotFound, cfg.ChannelName, guildID)
}

func (n *Notifier) forget(guildID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for key := range n.channels {
		if strings.HasPrefix(key, guildID+":") {
			delete(n.channels, key)
		}
	}
}
