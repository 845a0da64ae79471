package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/inhouse-league/internal/domain/bot"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	botmock "github.com/riskibarqy/inhouse-league/internal/mocks/domain/bot"
	lobbymock "github.com/riskibarqy/inhouse-league/internal/mocks/domain/lobby"
	usermock "github.com/riskibarqy/inhouse-league/internal/mocks/domain/user"
	"github.com/riskibarqy/inhouse-league/internal/platform/id"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func newMockedOrchestrator(t *testing.T) (*Orchestrator, *lobbymock.Repository, *botmock.Repository) {
	t.Helper()

	lobbyRepo := lobbymock.NewRepository(t)
	botRepo := botmock.NewRepository(t)
	orch := NewOrchestrator(
		seasonLeague("season-1"),
		usermock.NewRepository(t),
		lobbyRepo,
		botRepo,
		nil,
		&id.Sequence{Prefix: "lobby-"},
		DefaultOrchestratorConfig(),
		logging.NewNop(),
	)
	return orch, lobbyRepo, botRepo
}

func TestOrchestrator_Resume_ListFailureUsingMockery(t *testing.T) {
	t.Parallel()

	orch, lobbyRepo, _ := newMockedOrchestrator(t)
	lobbyRepo.
		On("ListActive", mock.Anything).
		Return(nil, errors.New("connection refused")).
		Once()

	restored, err := orch.Resume(context.Background())
	if err == nil {
		t.Fatalf("expected resume to fail")
	}
	if restored != 0 {
		t.Fatalf("unexpected restored count: %d", restored)
	}
}

func TestOrchestrator_Bots_LoadFailureUsingMockery(t *testing.T) {
	t.Parallel()

	orch, _, botRepo := newMockedOrchestrator(t)
	botRepo.
		On("ListByGuild", mock.Anything, "guild-1").
		Return(nil, errors.New("timeout")).
		Once()

	_, err := orch.Bots(context.Background(), "guild-1")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestOrchestrator_Bots_LoadedOnceUsingMockery(t *testing.T) {
	t.Parallel()

	orch, _, botRepo := newMockedOrchestrator(t)
	botRepo.
		On("ListByGuild", mock.Anything, "guild-1").
		Return([]bot.Bot{{ID: "bot-1", GuildID: "guild-1", Name: "Host 1"}}, nil).
		Once()

	for range 2 {
		bots, err := orch.Bots(context.Background(), "guild-1")
		if err != nil {
			t.Fatalf("list bots: %v", err)
		}
		if len(bots) != 1 || bots[0].ID != "bot-1" {
			t.Fatalf("unexpected bots: %+v", bots)
		}
	}
}

func TestOrchestrator_LobbyHistory_DefaultLimitUsingMockery(t *testing.T) {
	t.Parallel()

	orch, lobbyRepo, _ := newMockedOrchestrator(t)
	lobbyRepo.
		On("ListByGuild", mock.Anything, "guild-1", 20).
		Return([]lobby.Lobby{{ID: "lobby-9", GuildID: "guild-1", State: lobby.StateCompleted}}, nil).
		Once()

	got, err := orch.LobbyHistory(context.Background(), "guild-1", 0)
	if err != nil {
		t.Fatalf("lobby history: %v", err)
	}
	if len(got) != 1 || got[0].ID != "lobby-9" {
		t.Fatalf("unexpected history: %+v", got)
	}
}
