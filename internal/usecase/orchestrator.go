package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/bot"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/domain/queue"
	"github.com/riskibarqy/inhouse-league/internal/domain/user"
	"github.com/riskibarqy/inhouse-league/internal/platform/id"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/riskibarqy/inhouse-league/internal/platform/resilience"
)

// LeagueProvider hands out the guild configuration, creating it on first use.
type LeagueProvider interface {
	Ensure(ctx context.Context, guildID string) (league.League, error)
}

type OrchestratorConfig struct {
	TickInterval time.Duration
	SweepWorkers int
	Persist      resilience.RetryPolicy
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		TickInterval: time.Second,
		SweepWorkers: 8,
		Persist:      resilience.DefaultRetryPolicy(),
	}
}

// Orchestrator owns the live queue, bot pool, ban registry and in-flight
// lobbies of every guild. Calls for one guild are serialized on that guild's
// lock; different guilds never wait on each other.
type Orchestrator struct {
	leagues  LeagueProvider
	userRepo user.Repository
	lobbies  lobby.Repository
	botRepo  bot.Repository
	events   EventSink
	idGen    id.Generator
	logger   *logging.Logger
	cfg      OrchestratorConfig

	now         func() time.Time
	sleep       resilience.Sleeper
	onFinalized func(ctx context.Context, result user.MatchResult)

	mu     sync.Mutex
	guilds map[string]*guildState
}

func NewOrchestrator(
	leagues LeagueProvider,
	userRepo user.Repository,
	lobbyRepo lobby.Repository,
	botRepo bot.Repository,
	events EventSink,
	idGen id.Generator,
	cfg OrchestratorConfig,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if events == nil {
		events = nopSink{}
	}
	defaults := DefaultOrchestratorConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.SweepWorkers < 1 {
		cfg.SweepWorkers = defaults.SweepWorkers
	}
	cfg.Persist = resilience.NormalizeRetryPolicy(cfg.Persist)

	return &Orchestrator{
		leagues:  leagues,
		userRepo: userRepo,
		lobbies:  lobbyRepo,
		botRepo:  botRepo,
		events:   events,
		idGen:    idGen,
		logger:   logger.Named("orchestrator"),
		cfg:      cfg,
		now:      time.Now,
		sleep:    resilience.SleepContext,
		guilds:   make(map[string]*guildState),
	}
}

// OnMatchFinalized registers a callback run after a completed lobby's ratings
// were stored, e.g. to drop cached leaderboards.
func (o *Orchestrator) OnMatchFinalized(fn func(ctx context.Context, result user.MatchResult)) {
	o.onFinalized = fn
}

// PendingResult is a completed lobby whose outcome could not be stored.
type PendingResult struct {
	Lobby     lobby.Lobby
	Result    user.MatchResult
	LastError string
	FailedAt  time.Time
	Attempts  int
}

type guildState struct {
	mu sync.Mutex

	id        string
	botsReady bool
	queue     *queue.Queue
	bans      *queue.BanRegistry
	bots      *bot.Pool
	lobbies   map[string]*lobby.Lobby
	order     []string
	members   map[string]string
	reconcile []PendingResult
}

func newGuildState(guildID string) *guildState {
	return &guildState{
		id:      guildID,
		queue:   queue.New(),
		bans:    queue.NewBanRegistry(),
		bots:    bot.NewPool(nil),
		lobbies: make(map[string]*lobby.Lobby),
		members: make(map[string]string),
	}
}

// guild returns the state of guildID, creating an empty one when needed.
func (o *Orchestrator) guild(guildID string) *guildState {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, ok := o.guilds[guildID]
	if !ok {
		g = newGuildState(guildID)
		o.guilds[guildID] = g
	}
	return g
}

func (o *Orchestrator) existingGuild(guildID string) (*guildState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, ok := o.guilds[guildID]
	return g, ok
}

func (o *Orchestrator) guildIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]string, 0, len(o.guilds))
	for guildID := range o.guilds {
		out = append(out, guildID)
	}
	sort.Strings(out)
	return out
}

// lockGuild locks the guild and makes sure its bots are loaded.
func (o *Orchestrator) lockGuild(ctx context.Context, guildID string) (*guildState, error) {
	g := o.guild(guildID)
	g.mu.Lock()
	if err := o.loadBots(ctx, g); err != nil {
		g.mu.Unlock()
		return nil, err
	}
	return g, nil
}

func (o *Orchestrator) loadBots(ctx context.Context, g *guildState) error {
	if g.botsReady {
		return nil
	}
	bots, err := o.botRepo.ListByGuild(ctx, g.id)
	if err != nil {
		return fmt.Errorf("%w: load bots: %v", ErrDependencyUnavailable, err)
	}
	for _, b := range bots {
		b.LobbyID = ""
		g.bots.Add(b)
	}
	g.botsReady = true
	return nil
}

func (g *guildState) register(l *lobby.Lobby) {
	g.lobbies[l.ID] = l
	g.order = append(g.order, l.ID)
	for _, p := range l.Players {
		g.members[p.UserID] = l.ID
	}
}

// archive forgets a terminal lobby and frees its players and bot.
func (g *guildState) archive(l *lobby.Lobby) (releasedBot string) {
	delete(g.lobbies, l.ID)
	g.order = slices.DeleteFunc(g.order, func(id string) bool { return id == l.ID })
	for _, p := range l.Players {
		if g.members[p.UserID] == l.ID {
			delete(g.members, p.UserID)
		}
	}
	if l.BotID != "" && g.bots.Release(l.BotID) {
		return l.BotID
	}
	return ""
}

func (g *guildState) lobbyOfAccount(accountID string) (*lobby.Lobby, lobby.Player, bool) {
	for _, lobbyID := range g.order {
		l := g.lobbies[lobbyID]
		for _, p := range l.Players {
			if p.AccountID == accountID {
				return l, p, true
			}
		}
	}
	return nil, lobby.Player{}, false
}

func (g *guildState) activeLobby(lobbyID string) (*lobby.Lobby, error) {
	l, ok := g.lobbies[lobbyID]
	if !ok {
		return nil, fmt.Errorf("%w: active lobby=%s", ErrNotFound, lobbyID)
	}
	return l, nil
}

func (o *Orchestrator) publish(ctx context.Context, events []lobby.Event) {
	for _, ev := range events {
		o.events.Publish(ctx, ev)
	}
}

// saveLobby snapshots a lobby so Resume can rebuild it. Failures are logged;
// only finalization is retried.
func (o *Orchestrator) saveLobby(ctx context.Context, l *lobby.Lobby) {
	if err := o.lobbies.Save(ctx, l.Clone()); err != nil {
		o.logger.WarnContext(ctx, "save lobby snapshot failed",
			"guild_id", l.GuildID,
			"lobby_id", l.ID,
			"state", string(l.State),
			"error", err,
		)
	}
}

func (o *Orchestrator) saveBot(ctx context.Context, g *guildState, botID string) {
	b, ok := g.bots.Get(botID)
	if !ok {
		return
	}
	if err := o.botRepo.Upsert(ctx, b); err != nil {
		o.logger.WarnContext(ctx, "save bot failed", "guild_id", g.id, "bot_id", botID, "error", err)
	}
}

// transitionFailed logs contract violations at error level before handing them back.
func (o *Orchestrator) transitionFailed(ctx context.Context, l *lobby.Lobby, op string, err error) error {
	if errors.Is(err, lobby.ErrInvalidTransition) {
		o.logger.ErrorContext(ctx, "invalid lobby transition",
			"guild_id", l.GuildID,
			"lobby_id", l.ID,
			"state", string(l.State),
			"op", op,
			"error", err,
		)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireGuild(guildID string) (string, error) {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return "", fmt.Errorf("%w: guild id is required", ErrInvalidInput)
	}
	return guildID, nil
}

// QueueSnapshot lists waiting users in queue order.
func (o *Orchestrator) QueueSnapshot(guildID string) []queue.Entry {
	g, ok := o.existingGuild(guildID)
	if !ok {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queue.Entries()
}

// ActiveLobbies lists in-flight lobbies of a guild in formation order.
func (o *Orchestrator) ActiveLobbies(guildID string) []lobby.Lobby {
	g, ok := o.existingGuild(guildID)
	if !ok {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]lobby.Lobby, 0, len(g.order))
	for _, lobbyID := range g.order {
		out = append(out, g.lobbies[lobbyID].Clone())
	}
	return out
}

// Lobby returns an in-flight lobby, falling back to the archive.
func (o *Orchestrator) Lobby(ctx context.Context, guildID, lobbyID string) (lobby.Lobby, error) {
	if g, ok := o.existingGuild(guildID); ok {
		g.mu.Lock()
		l, active := g.lobbies[lobbyID]
		var snapshot lobby.Lobby
		if active {
			snapshot = l.Clone()
		}
		g.mu.Unlock()
		if active {
			return snapshot, nil
		}
	}

	l, exists, err := o.lobbies.GetByID(ctx, guildID, lobbyID)
	if err != nil {
		return lobby.Lobby{}, fmt.Errorf("get lobby: %w", err)
	}
	if !exists {
		return lobby.Lobby{}, fmt.Errorf("%w: lobby=%s", ErrNotFound, lobbyID)
	}
	return l, nil
}

// LobbyHistory lists the guild's most recent lobbies, newest first.
func (o *Orchestrator) LobbyHistory(ctx context.Context, guildID string, limit int) ([]lobby.Lobby, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	lobbies, err := o.lobbies.ListByGuild(ctx, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("list lobbies: %w", err)
	}
	return lobbies, nil
}

// Bots lists the guild's hosting bots.
func (o *Orchestrator) Bots(ctx context.Context, guildID string) ([]bot.Bot, error) {
	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer g.mu.Unlock()
	return g.bots.Bots(), nil
}
