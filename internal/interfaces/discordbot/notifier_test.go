package discordbot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

type staticLeagues struct{}

func (staticLeagues) Ensure(_ context.Context, guildID string) (league.League, error) {
	return league.Default(guildID), nil
}

type fakeSender struct {
	mu        sync.Mutex
	channels  []*discordgo.Channel
	lookups   int
	sent      map[string][]string
	failSends bool
}

func (f *fakeSender) GuildChannels(string, ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.channels, nil
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends {
		return nil, errors.New("unknown channel")
	}
	if f.sent == nil {
		f.sent = make(map[string][]string)
	}
	f.sent[channelID] = append(f.sent[channelID], data.Content)
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func TestNotifier_PostsToLeagueChannel(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{channels: []*discordgo.Channel{
		{ID: "voice", Name: league.DefaultChannelName, Type: discordgo.ChannelTypeGuildVoice},
		{ID: "text", Name: "General", Type: discordgo.ChannelTypeGuildText},
	}}
	n := NewNotifier(sender, staticLeagues{}, logging.NewNop())

	ctx := context.Background()
	events := []lobby.Event{
		{Type: lobby.EventLobbyFormed, GuildID: "g1", LobbyID: "l1", Players: []string{"a", "b"}},
		{Type: lobby.EventMatchStarted, GuildID: "g1", LobbyID: "l1"},
	}
	for _, e := range events {
		if err := n.Deliver(ctx, e); err != nil {
			t.Fatalf("deliver %s: %v", e.Type, err)
		}
	}

	if got := len(sender.sent["text"]); got != 2 {
		t.Fatalf("expected two posts to text channel, got %d (%v)", got, sender.sent)
	}
	if sender.lookups != 1 {
		t.Fatalf("expected channel lookup to be cached, got %d lookups", sender.lookups)
	}
}

func TestNotifier_MissingChannel(t *testing.T) {
	t.Parallel()

	n := NewNotifier(&fakeSender{}, staticLeagues{}, logging.NewNop())
	err := n.Deliver(context.Background(), lobby.Event{Type: lobby.EventMatchStarted, GuildID: "g1", LobbyID: "l1"})
	if !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNotifier_SendFailureDropsCachedChannel(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{
		channels:  []*discordgo.Channel{{ID: "text", Name: league.DefaultChannelName, Type: discordgo.ChannelTypeGuildText}},
		failSends: true,
	}
	n := NewNotifier(sender, staticLeagues{}, logging.NewNop())

	event := lobby.Event{Type: lobby.EventMatchStarted, GuildID: "g1", LobbyID: "l1"}
	for i := 0; i < 2; i++ {
		if err := n.Deliver(context.Background(), event); err == nil {
			t.Fatalf("expected send failure")
		}
	}
	if sender.lookups != 2 {
		t.Fatalf("expected channel to be resolved again after failure, got %d lookups", sender.lookups)
	}
}
