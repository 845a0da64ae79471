package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/sourcegraph/conc/pool"
)

// Tick expires overdue ready checks and bot waits of one guild. Ready players
// of an expired check go back to the front of the queue in lobby order.
func (o *Orchestrator) Tick(ctx context.Context, guildID string) error {
	g, ok := o.existingGuild(guildID)
	if !ok {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := o.now()
	var requeue []lobby.Player
	for _, lobbyID := range append([]string(nil), g.order...) {
		l := g.lobbies[lobbyID]

		if ready, events, expired := l.ExpireReadyCheck(now); expired {
			o.closeLobby(ctx, g, l, events)
			requeue = append(requeue, ready...)

			o.logger.InfoContext(ctx, "ready check timed out",
				"guild_id", g.id,
				"lobby_id", l.ID,
				"requeued", len(ready),
			)
			continue
		}

		if events, expired := l.ExpireBotWait(now); expired {
			o.closeLobby(ctx, g, l, events)
			o.logger.WarnContext(ctx, "no bot became available", "guild_id", g.id, "lobby_id", l.ID)
		}
	}

	if len(requeue) == 0 {
		return nil
	}
	// One push keeps older lobbies ahead of newer ones.
	g.queue.PushFront(entriesOf(requeue))
	cfg, err := o.leagues.Ensure(ctx, g.id)
	if err != nil {
		return fmt.Errorf("reload league for requeue: %w", err)
	}
	o.formLobbies(ctx, g, cfg)
	return nil
}

// TickAll sweeps every known guild on a bounded worker pool.
func (o *Orchestrator) TickAll(ctx context.Context) error {
	guildIDs := o.guildIDs()
	if len(guildIDs) == 0 {
		return nil
	}

	workers := min(o.cfg.SweepWorkers, len(guildIDs))
	p, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("create sweep pool: %w", err)
	}
	defer p.Release()

	var wg sync.WaitGroup
	for _, guildID := range guildIDs {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			if err := o.Tick(ctx, guildID); err != nil {
				o.logger.ErrorContext(ctx, "guild sweep failed", "guild_id", guildID, "error", err)
			}
		}); err != nil {
			wg.Done()
			o.logger.ErrorContext(ctx, "submit guild sweep failed", "guild_id", guildID, "error", err)
		}
	}
	wg.Wait()
	return nil
}

// Run sweeps on every tick interval until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	o.logger.InfoContext(ctx, "orchestrator sweep started", "interval", o.cfg.TickInterval.String())
	for {
		select {
		case <-ctx.Done():
			o.logger.InfoContext(ctx, "orchestrator sweep stopped")
			return nil
		case <-ticker.C:
			if err := o.TickAll(ctx); err != nil {
				o.logger.ErrorContext(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// Resume rebuilds in-flight lobbies from their snapshots after a restart.
// Deadlines are absolute, so anything that expired while the process was
// down is handled by the next sweep.
func (o *Orchestrator) Resume(ctx context.Context) (int, error) {
	active, err := o.lobbies.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active lobbies: %w", err)
	}

	byGuild := make(map[string][]lobby.Lobby)
	for _, l := range active {
		byGuild[l.GuildID] = append(byGuild[l.GuildID], l)
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(o.cfg.SweepWorkers)
	for guildID, lobbies := range byGuild {
		p.Go(func(ctx context.Context) error {
			return o.resumeGuild(ctx, guildID, lobbies)
		})
	}
	if err := p.Wait(); err != nil {
		return 0, err
	}

	o.logger.InfoContext(ctx, "orchestrator resumed", "guilds", len(byGuild), "lobbies", len(active))
	return len(active), nil
}

func (o *Orchestrator) resumeGuild(ctx context.Context, guildID string, lobbies []lobby.Lobby) error {
	g, err := o.lockGuild(ctx, guildID)
	if err != nil {
		return fmt.Errorf("resume guild %s: %w", guildID, err)
	}
	defer g.mu.Unlock()

	sort.SliceStable(lobbies, func(i, j int) bool { return lobbies[i].CreatedAt.Before(lobbies[j].CreatedAt) })
	for i := range lobbies {
		l := lobbies[i].Clone()
		if l.State.Terminal() {
			continue
		}
		if _, known := g.lobbies[l.ID]; known {
			continue
		}

		if l.BotID != "" {
			if err := g.bots.Claim(l.BotID, l.ID); err != nil {
				o.logger.WarnContext(ctx, "resume could not reclaim bot",
					"guild_id", guildID,
					"lobby_id", l.ID,
					"bot_id", l.BotID,
					"error", err,
				)
				if l.State == lobby.StateBotAssignment {
					_ = l.DropBot(o.now())
				}
			}
		}
		g.register(&l)
	}

	o.assignBots(ctx, g)
	return nil
}

// PendingReconciliations lists completed lobbies whose outcome is not stored yet.
func (o *Orchestrator) PendingReconciliations(guildID string) []PendingResult {
	g, ok := o.existingGuild(guildID)
	if !ok {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]PendingResult, len(g.reconcile))
	copy(out, g.reconcile)
	return out
}

// RetryReconciliation stores a parked outcome again. Rating changes are
// applied at most once per lobby, so retrying after a partial write is safe.
// The entry leaves the list while it is retried and returns on failure.
func (o *Orchestrator) RetryReconciliation(ctx context.Context, guildID, lobbyID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.RetryReconciliation", guildAttr(guildID))
	defer span.End()

	g, ok := o.existingGuild(guildID)
	if !ok {
		return fmt.Errorf("%w: no pending results for guild %s", ErrNotFound, guildID)
	}

	g.mu.Lock()
	idx := slices.IndexFunc(g.reconcile, func(p PendingResult) bool { return p.Lobby.ID == lobbyID })
	if idx < 0 {
		g.mu.Unlock()
		return fmt.Errorf("%w: pending result lobby=%s", ErrNotFound, lobbyID)
	}
	pending := g.reconcile[idx]
	g.reconcile = slices.Delete(g.reconcile, idx, idx+1)
	g.mu.Unlock()

	attempts := 0
	if err := o.persistResult(ctx, pending.Lobby, pending.Result, &attempts); err != nil {
		pending.LastError = err.Error()
		pending.Attempts += attempts
		g.mu.Lock()
		g.reconcile = append(g.reconcile, pending)
		g.mu.Unlock()
		return fmt.Errorf("%w: lobby=%s: %w", ErrPersistenceFailure, lobbyID, err)
	}

	o.logger.InfoContext(ctx, "match result reconciled", "guild_id", guildID, "lobby_id", lobbyID)
	return nil
}
