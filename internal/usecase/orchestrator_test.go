package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/bot"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/domain/queue"
	"github.com/riskibarqy/inhouse-league/internal/domain/user"
	"github.com/riskibarqy/inhouse-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/inhouse-league/internal/platform/id"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/riskibarqy/inhouse-league/internal/platform/resilience"
)

const testGuild = "guild-1"

var orchestratorInstances atomic.Int64

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flakyUserRepository fails ApplyMatchResult a fixed number of times.
type flakyUserRepository struct {
	user.Repository

	mu       sync.Mutex
	failures int
	calls    int
}

func (r *flakyUserRepository) ApplyMatchResult(ctx context.Context, result user.MatchResult) (bool, error) {
	r.mu.Lock()
	r.calls++
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()

	if fail {
		return false, errors.New("connection reset by peer")
	}
	return r.Repository.ApplyMatchResult(ctx, result)
}

func (r *flakyUserRepository) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// stallingUserRepository holds ApplyMatchResult until released.
type stallingUserRepository struct {
	user.Repository

	entered chan struct{}
	release chan struct{}
}

func (r *stallingUserRepository) ApplyMatchResult(ctx context.Context, result user.MatchResult) (bool, error) {
	close(r.entered)
	<-r.release
	return r.Repository.ApplyMatchResult(ctx, result)
}

type orchestratorHarness struct {
	orch    *Orchestrator
	leagues *LeagueService
	users   *memory.UserRepository
	lobbies *memory.LobbyRepository
	bots    *memory.BotRepository
	events  *EventRecorder
	clock   *fakeClock
}

type harnessOption func(*harnessSetup)

type harnessSetup struct {
	league   UpdateLeagueInput
	userRepo func(*memory.UserRepository) user.Repository
}

func withLobbySize(n int) harnessOption {
	return func(s *harnessSetup) { s.league.LobbySize = &n }
}

func withDraftMode(mode league.DraftMode) harnessOption {
	return func(s *harnessSetup) { s.league.DraftMode = &mode }
}

func withUserRepository(wrap func(*memory.UserRepository) user.Repository) harnessOption {
	return func(s *harnessSetup) { s.userRepo = wrap }
}

func newOrchestratorHarness(t *testing.T, opts ...harnessOption) *orchestratorHarness {
	t.Helper()

	lobbySize := 2
	readyTimeout := time.Second
	botWait := time.Minute
	setup := harnessSetup{
		league: UpdateLeagueInput{
			GuildID:           testGuild,
			LobbySize:         &lobbySize,
			ReadyCheckTimeout: &readyTimeout,
			BotWaitTimeout:    &botWait,
		},
	}
	for _, opt := range opts {
		opt(&setup)
	}

	h := &orchestratorHarness{
		users:   memory.NewUserRepository(),
		lobbies: memory.NewLobbyRepository(),
		bots:    memory.NewBotRepository(),
		events:  &EventRecorder{},
		clock:   newFakeClock(),
	}
	h.leagues = NewLeagueService(memory.NewLeagueRepository(), memory.NewSeasonRepository(), &id.Sequence{Prefix: "season-"})
	h.leagues.now = h.clock.Now
	if _, err := h.leagues.Update(context.Background(), setup.league); err != nil {
		t.Fatalf("configure league: %v", err)
	}

	var userRepo user.Repository = h.users
	if setup.userRepo != nil {
		userRepo = setup.userRepo(h.users)
	}
	h.orch = h.newOrchestrator(userRepo)
	return h
}

// newOrchestrator builds an orchestrator over the harness repositories, as a
// restarted process would.
func (h *orchestratorHarness) newOrchestrator(userRepo user.Repository) *Orchestrator {
	orch := NewOrchestrator(h.leagues, userRepo, h.lobbies, h.bots, h.events, &id.Sequence{Prefix: fmt.Sprintf("id%d-", orchestratorInstances.Add(1))}, OrchestratorConfig{
		SweepWorkers: 4,
		Persist:      resilience.RetryPolicy{Attempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	}, logging.NewNop())
	orch.now = h.clock.Now
	orch.sleep = func(context.Context, time.Duration) error { return nil }
	return orch
}

func (h *orchestratorHarness) join(t *testing.T, accountID string) JoinQueueResult {
	t.Helper()
	res, err := h.orch.JoinQueue(context.Background(), JoinQueueInput{GuildID: testGuild, AccountID: accountID})
	if err != nil {
		t.Fatalf("join %s: %v", accountID, err)
	}
	return res
}

func (h *orchestratorHarness) ready(t *testing.T, accountID string) lobby.Lobby {
	t.Helper()
	l, err := h.orch.ConfirmReady(context.Background(), testGuild, accountID)
	if err != nil {
		t.Fatalf("ready %s: %v", accountID, err)
	}
	return l
}

func (h *orchestratorHarness) registerBot(t *testing.T, botID string) {
	t.Helper()
	if _, err := h.orch.RegisterBot(context.Background(), RegisterBotInput{GuildID: testGuild, BotID: botID, Name: botID}); err != nil {
		t.Fatalf("register bot %s: %v", botID, err)
	}
}

func (h *orchestratorHarness) userOf(t *testing.T, accountID string) user.User {
	t.Helper()
	u, ok, err := h.users.GetByAccount(context.Background(), testGuild, accountID)
	if err != nil || !ok {
		t.Fatalf("get user %s: ok=%v err=%v", accountID, ok, err)
	}
	return u
}

func (h *orchestratorHarness) queuedAccounts() []string {
	var out []string
	for _, e := range h.orch.QueueSnapshot(testGuild) {
		out = append(out, e.AccountID)
	}
	return out
}

func (h *orchestratorHarness) storedLobby(t *testing.T, lobbyID string) lobby.Lobby {
	t.Helper()
	l, ok, err := h.lobbies.GetByID(context.Background(), testGuild, lobbyID)
	if err != nil || !ok {
		t.Fatalf("stored lobby %s: ok=%v err=%v", lobbyID, ok, err)
	}
	return l
}

// formAndReady fills a two player lobby and confirms both players.
func (h *orchestratorHarness) formAndReady(t *testing.T, a, b string) lobby.Lobby {
	t.Helper()
	h.join(t, a)
	res := h.join(t, b)
	if len(res.Formed) != 1 {
		t.Fatalf("expected one lobby to form, got %d", len(res.Formed))
	}
	h.ready(t, a)
	return h.ready(t, b)
}

func accountsOf(players []lobby.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.AccountID)
	}
	return out
}

func TestOrchestrator_TwoPlayerEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)
	h.registerBot(t, "bot-1")

	first := h.join(t, "alice")
	if first.Position != 1 || len(first.Formed) != 0 {
		t.Fatalf("unexpected first join: %+v", first)
	}
	second := h.join(t, "bob")
	if len(second.Formed) != 1 || second.QueueLen != 0 {
		t.Fatalf("expected lobby to form and drain queue, got %+v", second)
	}
	formed := second.Formed[0]
	if formed.State != lobby.StateReadyCheck || formed.ReadyDeadline == nil {
		t.Fatalf("expected ready check, got %s", formed.State)
	}
	if !formed.ReadyDeadline.Equal(h.clock.Now().Add(time.Second)) {
		t.Fatalf("unexpected ready deadline: %s", formed.ReadyDeadline)
	}

	h.clock.Advance(200 * time.Millisecond)
	h.ready(t, "alice")
	h.clock.Advance(300 * time.Millisecond)
	l := h.ready(t, "bob")

	alice, bob := h.userOf(t, "alice"), h.userOf(t, "bob")
	if l.Captains != [2]string{alice.ID, bob.ID} {
		t.Fatalf("expected both players as captains, got %v", l.Captains)
	}
	if l.State != lobby.StateBotAssignment || l.BotID != "bot-1" {
		t.Fatalf("expected bot-1 assigned, got state=%s bot=%q", l.State, l.BotID)
	}

	l, err := h.orch.StartMatch(ctx, testGuild, l.ID, "bot-1")
	if err != nil {
		t.Fatalf("start match: %v", err)
	}
	if l.State != lobby.StateInProgress {
		t.Fatalf("expected in progress, got %s", l.State)
	}

	aliceFaction := lobby.Faction1
	if p, _ := l.Player(alice.ID); p.Faction != aliceFaction {
		t.Fatalf("expected alice on faction 1, got %d", p.Faction)
	}

	outcome, err := h.orch.ReportResult(ctx, testGuild, l.ID, aliceFaction)
	if err != nil {
		t.Fatalf("report result: %v", err)
	}
	if outcome.Lobby.State != lobby.StateCompleted || outcome.Lobby.Winner != aliceFaction {
		t.Fatalf("unexpected outcome lobby: %+v", outcome.Lobby)
	}

	alice, bob = h.userOf(t, "alice"), h.userOf(t, "bob")
	gain := alice.Rating - 1000
	if gain <= 0 || bob.Rating != 1000-gain {
		t.Fatalf("expected symmetric rating change, alice=%d bob=%d", alice.Rating, bob.Rating)
	}
	if alice.Wins != 1 || bob.Losses != 1 {
		t.Fatalf("unexpected records: alice=%+v bob=%+v", alice, bob)
	}

	if stored := h.storedLobby(t, l.ID); stored.State != lobby.StateCompleted {
		t.Fatalf("expected stored lobby completed, got %s", stored.State)
	}
	bots, err := h.orch.Bots(ctx, testGuild)
	if err != nil {
		t.Fatalf("bots: %v", err)
	}
	if len(bots) != 1 || !bots[0].Available() {
		t.Fatalf("expected bot released, got %+v", bots)
	}
	if active := h.orch.ActiveLobbies(testGuild); len(active) != 0 {
		t.Fatalf("expected no active lobbies, got %d", len(active))
	}

	want := []lobby.EventType{
		lobby.EventLobbyFormed,
		lobby.EventReadyCheckStarted,
		lobby.EventPlayerReady,
		lobby.EventPlayerReady,
		lobby.EventDraftCompleted,
		lobby.EventBotAssigned,
		lobby.EventMatchStarted,
		lobby.EventMatchCompleted,
	}
	if got := h.events.Types(); !slices.Equal(got, want) {
		t.Fatalf("unexpected events:\n got=%v\nwant=%v", got, want)
	}

	h.join(t, "alice")
	if again := h.join(t, "bob"); len(again.Formed) != 1 {
		t.Fatalf("expected both players to be able to queue again")
	}
}

func TestOrchestrator_JoinQueueAlreadyQueuedLeavesQueueUnchanged(t *testing.T) {
	t.Parallel()

	h := newOrchestratorHarness(t, withLobbySize(4))
	h.join(t, "alice")
	h.join(t, "bob")
	before := h.queuedAccounts()

	_, err := h.orch.JoinQueue(context.Background(), JoinQueueInput{GuildID: testGuild, AccountID: "alice"})
	if !errors.Is(err, queue.ErrAlreadyQueued) {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}
	if after := h.queuedAccounts(); !slices.Equal(before, after) {
		t.Fatalf("queue changed: before=%v after=%v", before, after)
	}
}

func TestOrchestrator_JoinQueueWhileInLobby(t *testing.T) {
	t.Parallel()

	h := newOrchestratorHarness(t)
	h.join(t, "alice")
	h.join(t, "bob")

	_, err := h.orch.JoinQueue(context.Background(), JoinQueueInput{GuildID: testGuild, AccountID: "bob"})
	if !errors.Is(err, queue.ErrAlreadyQueued) {
		t.Fatalf("expected ErrAlreadyQueued for lobby member, got %v", err)
	}
	if q := h.queuedAccounts(); len(q) != 0 {
		t.Fatalf("expected empty queue, got %v", q)
	}
}

func TestOrchestrator_JoinQueueValidation(t *testing.T) {
	t.Parallel()

	h := newOrchestratorHarness(t)
	tests := []JoinQueueInput{
		{GuildID: "", AccountID: "alice"},
		{GuildID: testGuild, AccountID: "  "},
	}
	for _, input := range tests {
		if _, err := h.orch.JoinQueue(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", input, err)
		}
	}
}

func TestOrchestrator_BanDurations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		minutes    int
		wantBanned bool
	}{
		{name: "zero minutes is a plain kick", minutes: 0, wantBanned: false},
		{name: "five minutes blocks rejoin", minutes: 5, wantBanned: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			h := newOrchestratorHarness(t, withLobbySize(4))
			h.join(t, "alice")
			h.join(t, "bob")

			res, err := h.orch.BanQueueAndKick(ctx, BanInput{GuildID: testGuild, AccountID: "alice", Minutes: tc.minutes})
			if err != nil {
				t.Fatalf("ban: %v", err)
			}
			if !res.Evicted {
				t.Fatalf("expected alice evicted")
			}
			if q := h.queuedAccounts(); !slices.Equal(q, []string{"bob"}) {
				t.Fatalf("unexpected queue after kick: %v", q)
			}

			_, err = h.orch.JoinQueue(ctx, JoinQueueInput{GuildID: testGuild, AccountID: "alice"})
			if !tc.wantBanned {
				if err != nil {
					t.Fatalf("expected immediate rejoin, got %v", err)
				}
				if res.ExpiresAt != nil {
					t.Fatalf("expected no ban expiry, got %v", res.ExpiresAt)
				}
				return
			}

			if !errors.Is(err, queue.ErrBanned) {
				t.Fatalf("expected ErrBanned, got %v", err)
			}
			if q := h.queuedAccounts(); !slices.Equal(q, []string{"bob"}) {
				t.Fatalf("banned join changed queue: %v", q)
			}
			want := h.clock.Now().Add(5 * time.Minute)
			if res.ExpiresAt == nil || !res.ExpiresAt.Equal(want) {
				t.Fatalf("expected ban until %s, got %v", want, res.ExpiresAt)
			}
			if stored := h.userOf(t, "alice"); stored.BanExpiresAt == nil || !stored.BanExpiresAt.Equal(want) {
				t.Fatalf("expected persisted ban, got %v", stored.BanExpiresAt)
			}

			h.clock.Advance(5 * time.Minute)
			if _, err := h.orch.JoinQueue(ctx, JoinQueueInput{GuildID: testGuild, AccountID: "alice"}); err != nil {
				t.Fatalf("expected rejoin after ban expiry, got %v", err)
			}
		})
	}
}

func TestOrchestrator_PersistedBanSurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t, withLobbySize(4))
	h.join(t, "alice")
	if _, err := h.orch.BanQueueAndKick(ctx, BanInput{GuildID: testGuild, AccountID: "alice", Minutes: 10}); err != nil {
		t.Fatalf("ban: %v", err)
	}

	restarted := h.newOrchestrator(h.users)
	_, err := restarted.JoinQueue(ctx, JoinQueueInput{GuildID: testGuild, AccountID: "alice"})
	if !errors.Is(err, queue.ErrBanned) {
		t.Fatalf("expected stored ban to apply after restart, got %v", err)
	}
}

func TestOrchestrator_BanUnknownAccountIsNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)

	_, err := h.orch.BanQueueAndKick(ctx, BanInput{GuildID: testGuild, AccountID: "stranger", Minutes: 5})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, ok, _ := h.users.GetByAccount(ctx, testGuild, "stranger"); ok {
		t.Fatalf("ban must not register unknown accounts")
	}

	// Joining registers the account, after which bans apply.
	h.join(t, "stranger")
	if _, err := h.orch.BanQueueAndKick(ctx, BanInput{GuildID: testGuild, AccountID: "stranger", Minutes: 5}); err != nil {
		t.Fatalf("ban after join: %v", err)
	}
}

func TestOrchestrator_BanDuringReadyCheckCancelsLobby(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)
	h.join(t, "alice")
	formed := h.join(t, "bob").Formed[0]
	h.join(t, "carol")

	res, err := h.orch.BanQueueAndKick(ctx, BanInput{GuildID: testGuild, AccountID: "alice", Minutes: 0})
	if err != nil {
		t.Fatalf("ban: %v", err)
	}
	if res.CancelledLobbyID != formed.ID {
		t.Fatalf("expected lobby %s cancelled, got %q", formed.ID, res.CancelledLobbyID)
	}

	stored := h.storedLobby(t, formed.ID)
	if stored.State != lobby.StateCancelled || stored.CancelReason != lobby.ReasonPlayerRemoved {
		t.Fatalf("unexpected cancelled lobby: state=%s reason=%s", stored.State, stored.CancelReason)
	}

	// bob goes back in front of carol and the pair forms the next lobby.
	active := h.orch.ActiveLobbies(testGuild)
	if len(active) != 1 {
		t.Fatalf("expected one new lobby, got %d", len(active))
	}
	if got := accountsOf(active[0].Players); !slices.Equal(got, []string{"bob", "carol"}) {
		t.Fatalf("expected bob then carol, got %v", got)
	}
}

func TestOrchestrator_ReadyCheckTimeoutRequeuesReadyPlayersAtFront(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t, withLobbySize(10))

	accounts := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		accounts = append(accounts, fmt.Sprintf("p%02d", i))
	}
	var formed lobby.Lobby
	for _, a := range accounts {
		if res := h.join(t, a); len(res.Formed) == 1 {
			formed = res.Formed[0]
		}
	}
	if formed.ID == "" {
		t.Fatalf("expected a lobby after ten joins")
	}
	for _, late := range []string{"x1", "x2", "x3"} {
		h.join(t, late)
	}

	absent := "p05"
	for _, a := range accounts {
		if a != absent {
			h.ready(t, a)
		}
	}

	h.clock.Advance(999 * time.Millisecond)
	if err := h.orch.Tick(ctx, testGuild); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if stored := h.storedLobby(t, formed.ID); stored.State != lobby.StateReadyCheck {
		t.Fatalf("lobby expired before its deadline: %s", stored.State)
	}

	h.clock.Advance(time.Millisecond)
	if err := h.orch.Tick(ctx, testGuild); err != nil {
		t.Fatalf("tick: %v", err)
	}

	stored := h.storedLobby(t, formed.ID)
	if stored.State != lobby.StateCancelled || stored.CancelReason != lobby.ReasonReadyCheckTimeout {
		t.Fatalf("unexpected expired lobby: state=%s reason=%s", stored.State, stored.CancelReason)
	}

	// The nine ready players keep their order ahead of the late joiners, so
	// they and x1 form the next lobby while x2 and x3 keep waiting.
	active := h.orch.ActiveLobbies(testGuild)
	if len(active) != 1 {
		t.Fatalf("expected one reformed lobby, got %d", len(active))
	}
	want := slices.DeleteFunc(slices.Clone(accounts), func(a string) bool { return a == absent })
	want = append(want, "x1")
	if got := accountsOf(active[0].Players); !slices.Equal(got, want) {
		t.Fatalf("unexpected reformed roster:\n got=%v\nwant=%v", got, want)
	}
	if q := h.queuedAccounts(); !slices.Equal(q, []string{"x2", "x3"}) {
		t.Fatalf("unexpected queue: %v", q)
	}
	if _, err := h.orch.JoinQueue(ctx, JoinQueueInput{GuildID: testGuild, AccountID: absent}); err != nil {
		t.Fatalf("non-ready player should be free to queue again: %v", err)
	}
}

func TestOrchestrator_FIFOAcrossLobbies(t *testing.T) {
	t.Parallel()

	h := newOrchestratorHarness(t)
	for _, a := range []string{"a", "b", "c", "d", "e"} {
		h.join(t, a)
	}

	active := h.orch.ActiveLobbies(testGuild)
	if len(active) != 2 {
		t.Fatalf("expected two lobbies, got %d", len(active))
	}
	if got := accountsOf(active[0].Players); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("unexpected first lobby: %v", got)
	}
	if got := accountsOf(active[1].Players); !slices.Equal(got, []string{"c", "d"}) {
		t.Fatalf("unexpected second lobby: %v", got)
	}
	if q := h.queuedAccounts(); !slices.Equal(q, []string{"e"}) {
		t.Fatalf("unexpected queue: %v", q)
	}
}

func TestOrchestrator_ReadyCheckTimeoutsInOneSweepKeepQueueOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t, withLobbySize(4))
	for _, a := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		h.join(t, a)
	}
	if active := h.orch.ActiveLobbies(testGuild); len(active) != 2 {
		t.Fatalf("expected two lobbies, got %d", len(active))
	}

	for _, a := range []string{"a", "b", "e"} {
		h.ready(t, a)
	}

	h.clock.Advance(time.Second)
	if err := h.orch.Tick(ctx, testGuild); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if active := h.orch.ActiveLobbies(testGuild); len(active) != 0 {
		t.Fatalf("expected both lobbies cancelled, got %d", len(active))
	}
	if q := h.queuedAccounts(); !slices.Equal(q, []string{"a", "b", "e"}) {
		t.Fatalf("players of the older lobby must stay ahead, got %v", q)
	}
}

func TestOrchestrator_LeaveQueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t, withLobbySize(4))
	h.join(t, "alice")

	left, err := h.orch.LeaveQueue(ctx, testGuild, "alice")
	if err != nil || !left {
		t.Fatalf("leave: left=%v err=%v", left, err)
	}
	left, err = h.orch.LeaveQueue(ctx, testGuild, "alice")
	if err != nil || left {
		t.Fatalf("second leave must be a no-op: left=%v err=%v", left, err)
	}
	if left, _ := h.orch.LeaveQueue(ctx, testGuild, "stranger"); left {
		t.Fatalf("unknown account cannot leave")
	}
}

func TestOrchestrator_CaptainsDraft(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t, withLobbySize(4))
	h.registerBot(t, "bot-1")

	roles := map[string][]string{
		"alice": {"Tier 1 Captain"},
		"bob":   {"Tier 2 Captain"},
	}
	for _, a := range []string{"alice", "bob", "carol", "dave"} {
		if _, err := h.orch.JoinQueue(ctx, JoinQueueInput{GuildID: testGuild, AccountID: a, RoleNames: roles[a]}); err != nil {
			t.Fatalf("join %s: %v", a, err)
		}
	}
	var l lobby.Lobby
	for _, a := range []string{"alice", "bob", "carol", "dave"} {
		l = h.ready(t, a)
	}
	if l.State != lobby.StateDrafting {
		t.Fatalf("expected drafting, got %s", l.State)
	}
	alice, bob := h.userOf(t, "alice"), h.userOf(t, "bob")
	if l.Captains != [2]string{alice.ID, bob.ID} {
		t.Fatalf("expected ranked captains alice and bob, got %v", l.Captains)
	}

	_, err := h.orch.PickPlayer(ctx, PickInput{GuildID: testGuild, CaptainAccountID: "bob", PickAccountID: "carol"})
	if err == nil {
		t.Fatalf("expected out of turn pick to fail")
	}

	l, err = h.orch.PickPlayer(ctx, PickInput{GuildID: testGuild, CaptainAccountID: "alice", PickAccountID: "carol"})
	if err != nil {
		t.Fatalf("alice pick: %v", err)
	}
	l, err = h.orch.PickPlayer(ctx, PickInput{GuildID: testGuild, CaptainAccountID: "bob", PickAccountID: "dave"})
	if err != nil {
		t.Fatalf("bob pick: %v", err)
	}
	if l.State != lobby.StateBotAssignment || l.BotID != "bot-1" {
		t.Fatalf("expected bot assignment with bot-1, got state=%s bot=%q", l.State, l.BotID)
	}
	if len(l.Team(lobby.Faction1)) != 2 || len(l.Team(lobby.Faction2)) != 2 {
		t.Fatalf("expected balanced teams, got %+v", l.Players)
	}
}

func TestOrchestrator_AutoDraftSkipsPicks(t *testing.T) {
	t.Parallel()

	h := newOrchestratorHarness(t, withLobbySize(6), withDraftMode(league.DraftModeAuto))
	accounts := []string{"a", "b", "c", "d", "e", "f"}
	for _, a := range accounts {
		h.join(t, a)
	}
	var l lobby.Lobby
	for _, a := range accounts {
		l = h.ready(t, a)
	}

	if l.State != lobby.StateBotAssignment || !l.WaitingForBot() {
		t.Fatalf("expected auto draft to finish and wait for a bot, got %s", l.State)
	}
	if len(l.Team(lobby.Faction1)) != 3 || len(l.Team(lobby.Faction2)) != 3 {
		t.Fatalf("expected 3v3, got %+v", l.Players)
	}
}

func TestOrchestrator_BotFailureBeforeStartReassigns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)

	l := h.formAndReady(t, "alice", "bob")
	if !l.WaitingForBot() {
		t.Fatalf("expected lobby waiting for a bot, got state=%s bot=%q", l.State, l.BotID)
	}

	h.registerBot(t, "bot-1")
	if got, _ := h.orch.Lobby(ctx, testGuild, l.ID); got.BotID != "bot-1" {
		t.Fatalf("expected bot-1 assigned on registration, got %q", got.BotID)
	}

	res, err := h.orch.ReportBotFailure(ctx, testGuild, "bot-1")
	if err != nil {
		t.Fatalf("report bot failure: %v", err)
	}
	if res.Lobby == nil || res.Lobby.State != lobby.StateBotAssignment || res.Lobby.BotID != "" {
		t.Fatalf("expected lobby to wait for another bot, got %+v", res.Lobby)
	}
	if !res.Bot.Failed {
		t.Fatalf("expected bot-1 marked failed")
	}

	h.registerBot(t, "bot-2")
	got, _ := h.orch.Lobby(ctx, testGuild, l.ID)
	if got.BotID != "bot-2" {
		t.Fatalf("expected bot-2 assigned, got %q", got.BotID)
	}
	if _, err := h.orch.StartMatch(ctx, testGuild, l.ID, "bot-1"); !errors.Is(err, lobby.ErrBotMismatch) {
		t.Fatalf("expected ErrBotMismatch for stale bot, got %v", err)
	}

	if _, err := h.orch.RestoreBot(ctx, testGuild, "bot-1"); err != nil {
		t.Fatalf("restore bot: %v", err)
	}
	bots, _ := h.orch.Bots(ctx, testGuild)
	for _, b := range bots {
		if b.ID == "bot-1" && !b.Available() {
			t.Fatalf("expected bot-1 back in rotation, got %+v", b)
		}
	}
}

func TestOrchestrator_BotFailureInProgressCancels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)
	h.registerBot(t, "bot-1")
	l := h.formAndReady(t, "alice", "bob")
	if _, err := h.orch.StartMatch(ctx, testGuild, l.ID, ""); err != nil {
		t.Fatalf("start match: %v", err)
	}

	res, err := h.orch.ReportBotFailure(ctx, testGuild, "bot-1")
	if err != nil {
		t.Fatalf("report bot failure: %v", err)
	}
	if res.Lobby == nil || res.Lobby.State != lobby.StateCancelled || res.Lobby.CancelReason != lobby.ReasonBotFailure {
		t.Fatalf("expected lobby cancelled by bot failure, got %+v", res.Lobby)
	}
	if _, err := h.orch.ReportResult(ctx, testGuild, l.ID, lobby.Faction1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cancelled lobby, got %v", err)
	}
	if u := h.userOf(t, "alice"); u.Rating != 1000 {
		t.Fatalf("cancelled match must not change ratings, got %d", u.Rating)
	}
	h.join(t, "alice")
}

func TestOrchestrator_ReportBotFailureUnknownBot(t *testing.T) {
	t.Parallel()

	h := newOrchestratorHarness(t)
	_, err := h.orch.ReportBotFailure(context.Background(), testGuild, "ghost")
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, bot.ErrUnknownBot) {
		t.Fatalf("expected not found unknown bot, got %v", err)
	}
}

func TestOrchestrator_BotWaitExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)
	l := h.formAndReady(t, "alice", "bob")

	h.clock.Advance(time.Minute)
	if err := h.orch.Tick(ctx, testGuild); err != nil {
		t.Fatalf("tick: %v", err)
	}

	stored := h.storedLobby(t, l.ID)
	if stored.State != lobby.StateCancelled || stored.CancelReason != lobby.ReasonNoBotAvailable {
		t.Fatalf("unexpected lobby: state=%s reason=%s", stored.State, stored.CancelReason)
	}
	if q := h.queuedAccounts(); len(q) != 0 {
		t.Fatalf("players of a bot timeout are not requeued, got %v", q)
	}
}

func TestOrchestrator_InvalidTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)
	h.join(t, "alice")
	formed := h.join(t, "bob").Formed[0]

	if _, err := h.orch.ReportResult(ctx, testGuild, formed.ID, lobby.Faction1); !errors.Is(err, lobby.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := h.orch.AbortLobby(ctx, testGuild, formed.ID); !errors.Is(err, lobby.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on abort, got %v", err)
	}
	if _, err := h.orch.StartMatch(ctx, testGuild, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	h.clock.Advance(2 * time.Second)
	if _, err := h.orch.ConfirmReady(ctx, testGuild, "alice"); !errors.Is(err, lobby.ErrReadyCheckTimeout) {
		t.Fatalf("expected ErrReadyCheckTimeout after deadline, got %v", err)
	}
}

func TestOrchestrator_AbortLobbyReleasesBot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)
	h.registerBot(t, "bot-1")
	l := h.formAndReady(t, "alice", "bob")

	aborted, err := h.orch.AbortLobby(ctx, testGuild, l.ID)
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if aborted.State != lobby.StateCancelled || aborted.CancelReason != lobby.ReasonMatchAborted {
		t.Fatalf("unexpected aborted lobby: %+v", aborted)
	}

	next := h.formAndReady(t, "carol", "dave")
	if next.BotID != "bot-1" {
		t.Fatalf("expected released bot-1 to serve the next lobby, got %q", next.BotID)
	}
}

func TestOrchestrator_PersistenceRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var flaky *flakyUserRepository
	h := newOrchestratorHarness(t, withUserRepository(func(next *memory.UserRepository) user.Repository {
		flaky = &flakyUserRepository{Repository: next, failures: 2}
		return flaky
	}))
	h.registerBot(t, "bot-1")
	l := h.formAndReady(t, "alice", "bob")
	if _, err := h.orch.StartMatch(ctx, testGuild, l.ID, "bot-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := h.orch.ReportResult(ctx, testGuild, l.ID, lobby.Faction1); err != nil {
		t.Fatalf("expected retries to absorb transient failures, got %v", err)
	}
	if flaky.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", flaky.Calls())
	}
	if pending := h.orch.PendingReconciliations(testGuild); len(pending) != 0 {
		t.Fatalf("expected nothing to reconcile, got %d", len(pending))
	}
}

func TestOrchestrator_PersistenceFailureIsReconciled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var flaky *flakyUserRepository
	h := newOrchestratorHarness(t, withUserRepository(func(next *memory.UserRepository) user.Repository {
		flaky = &flakyUserRepository{Repository: next, failures: 5}
		return flaky
	}))

	var finalized []string
	h.orch.OnMatchFinalized(func(_ context.Context, result user.MatchResult) {
		finalized = append(finalized, result.LobbyID)
	})

	h.registerBot(t, "bot-1")
	l := h.formAndReady(t, "alice", "bob")
	if _, err := h.orch.StartMatch(ctx, testGuild, l.ID, "bot-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	outcome, err := h.orch.ReportResult(ctx, testGuild, l.ID, lobby.Faction1)
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
	if outcome.Lobby.State != lobby.StateCompleted {
		t.Fatalf("lobby must end completed even when storing fails, got %s", outcome.Lobby.State)
	}
	if len(outcome.Changes) != 2 {
		t.Fatalf("expected computed rating changes, got %+v", outcome.Changes)
	}

	pending := h.orch.PendingReconciliations(testGuild)
	if len(pending) != 1 || pending[0].Lobby.ID != l.ID || pending[0].Attempts != 3 {
		t.Fatalf("unexpected pending results: %+v", pending)
	}
	if len(finalized) != 0 {
		t.Fatalf("finalized hook must not run on failure")
	}
	if u := h.userOf(t, "alice"); u.Rating != 1000 {
		t.Fatalf("rating must not change before the result is stored, got %d", u.Rating)
	}
	bots, _ := h.orch.Bots(ctx, testGuild)
	if !bots[0].Available() {
		t.Fatalf("bot must be released after completion")
	}

	if err := h.orch.RetryReconciliation(ctx, testGuild, l.ID); err != nil {
		t.Fatalf("retry reconciliation: %v", err)
	}
	if pending := h.orch.PendingReconciliations(testGuild); len(pending) != 0 {
		t.Fatalf("expected reconciliation list drained, got %d", len(pending))
	}
	if !slices.Equal(finalized, []string{l.ID}) {
		t.Fatalf("expected finalized hook for %s, got %v", l.ID, finalized)
	}

	alice := h.userOf(t, "alice")
	if alice.Rating <= 1000 || alice.Wins != 1 {
		t.Fatalf("expected result applied once, got %+v", alice)
	}
	if err := h.orch.RetryReconciliation(ctx, testGuild, l.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for reconciled lobby, got %v", err)
	}
}

func TestOrchestrator_ReconcileAfterLaterMatchKeepsBothResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t, withUserRepository(func(next *memory.UserRepository) user.Repository {
		return &flakyUserRepository{Repository: next, failures: 3}
	}))
	h.registerBot(t, "bot-1")

	play := func(wantErr error) lobby.Lobby {
		t.Helper()
		l := h.formAndReady(t, "alice", "bob")
		if _, err := h.orch.StartMatch(ctx, testGuild, l.ID, "bot-1"); err != nil {
			t.Fatalf("start: %v", err)
		}
		p, _ := l.Player(h.userOf(t, "alice").ID)
		if _, err := h.orch.ReportResult(ctx, testGuild, l.ID, p.Faction); !errors.Is(err, wantErr) {
			t.Fatalf("report result: expected %v, got %v", wantErr, err)
		}
		return l
	}

	first := play(ErrPersistenceFailure)
	play(nil)

	if alice := h.userOf(t, "alice"); alice.Rating != 1016 || alice.Wins != 1 {
		t.Fatalf("expected only the second win stored, got %+v", alice)
	}

	if err := h.orch.RetryReconciliation(ctx, testGuild, first.ID); err != nil {
		t.Fatalf("retry reconciliation: %v", err)
	}

	alice, bob := h.userOf(t, "alice"), h.userOf(t, "bob")
	if alice.Rating != 1032 || alice.Wins != 2 {
		t.Fatalf("reconciled win must add to the later one, got %+v", alice)
	}
	if bob.Rating != 968 || bob.Losses != 2 {
		t.Fatalf("reconciled loss must add to the later one, got %+v", bob)
	}
}

func TestOrchestrator_StoringResultDoesNotBlockGuild(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stalling := &stallingUserRepository{entered: make(chan struct{}), release: make(chan struct{})}
	h := newOrchestratorHarness(t, withUserRepository(func(next *memory.UserRepository) user.Repository {
		stalling.Repository = next
		return stalling
	}))
	h.registerBot(t, "bot-1")

	l := h.formAndReady(t, "a", "b")
	if _, err := h.orch.StartMatch(ctx, testGuild, l.ID, "bot-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	reported := make(chan error, 1)
	go func() {
		_, err := h.orch.ReportResult(ctx, testGuild, l.ID, lobby.Faction1)
		reported <- err
	}()
	<-stalling.entered

	joined := make(chan error, 1)
	go func() {
		_, err := h.orch.JoinQueue(ctx, JoinQueueInput{GuildID: testGuild, AccountID: "e"})
		joined <- err
	}()
	select {
	case err := <-joined:
		if err != nil {
			t.Fatalf("join while result is stored: %v", err)
		}
	case <-time.After(2 * time.Second):
		close(stalling.release)
		t.Fatalf("join blocked behind result storage")
	}

	close(stalling.release)
	if err := <-reported; err != nil {
		t.Fatalf("report result: %v", err)
	}
	if q := h.queuedAccounts(); !slices.Equal(q, []string{"e"}) {
		t.Fatalf("unexpected queue: %v", q)
	}
}

func TestOrchestrator_ResumeRestoresLobbies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)
	h.registerBot(t, "bot-1")

	playing := h.formAndReady(t, "alice", "bob")
	if _, err := h.orch.StartMatch(ctx, testGuild, playing.ID, "bot-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(time.Second)
	waiting := h.formAndReady(t, "carol", "dave")
	if !waiting.WaitingForBot() {
		t.Fatalf("expected second lobby waiting for a bot")
	}

	restarted := h.newOrchestrator(h.users)
	n, err := restarted.Resume(ctx)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 resumed lobbies, got %d", n)
	}

	active := restarted.ActiveLobbies(testGuild)
	if len(active) != 2 || active[0].ID != playing.ID || active[1].ID != waiting.ID {
		t.Fatalf("unexpected resumed lobbies: %+v", active)
	}
	if _, err := restarted.JoinQueue(ctx, JoinQueueInput{GuildID: testGuild, AccountID: "alice"}); !errors.Is(err, queue.ErrAlreadyQueued) {
		t.Fatalf("resumed lobby members must not queue, got %v", err)
	}

	if _, err := restarted.ReportResult(ctx, testGuild, playing.ID, lobby.Faction2); err != nil {
		t.Fatalf("report result after resume: %v", err)
	}
	got, err := restarted.Lobby(ctx, testGuild, waiting.ID)
	if err != nil {
		t.Fatalf("lobby: %v", err)
	}
	if got.BotID != "bot-1" {
		t.Fatalf("expected freed bot to move to the waiting lobby, got %q", got.BotID)
	}
}

func TestOrchestrator_TickAllSweepsEveryGuild(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newOrchestratorHarness(t)

	guilds := []string{testGuild, "guild-2", "guild-3"}
	lobbyIDs := make(map[string]string, len(guilds))
	for _, guildID := range guilds {
		size, timeout := 2, time.Second
		if _, err := h.leagues.Update(ctx, UpdateLeagueInput{GuildID: guildID, LobbySize: &size, ReadyCheckTimeout: &timeout}); err != nil {
			t.Fatalf("configure %s: %v", guildID, err)
		}
		for _, a := range []string{"alice", "bob"} {
			res, err := h.orch.JoinQueue(ctx, JoinQueueInput{GuildID: guildID, AccountID: a})
			if err != nil {
				t.Fatalf("join %s/%s: %v", guildID, a, err)
			}
			if len(res.Formed) == 1 {
				lobbyIDs[guildID] = res.Formed[0].ID
			}
		}
	}

	h.clock.Advance(time.Second)
	if err := h.orch.TickAll(ctx); err != nil {
		t.Fatalf("tick all: %v", err)
	}

	for _, guildID := range guilds {
		if active := h.orch.ActiveLobbies(guildID); len(active) != 0 {
			t.Fatalf("guild %s still has %d active lobbies", guildID, len(active))
		}
		l, ok, err := h.lobbies.GetByID(ctx, guildID, lobbyIDs[guildID])
		if err != nil || !ok {
			t.Fatalf("stored lobby %s: ok=%v err=%v", guildID, ok, err)
		}
		if l.CancelReason != lobby.ReasonReadyCheckTimeout {
			t.Fatalf("guild %s lobby not expired: %s", guildID, l.CancelReason)
		}
	}
}

func TestOrchestrator_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	h := newOrchestratorHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}
