package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
)

const (
	defaultDeliverTimeout = 10 * time.Second
	defaultMaxPending     = 512
)

// Deliverer sends one event to a slow destination such as a webhook or a
// chat channel.
type Deliverer interface {
	Deliver(ctx context.Context, event lobby.Event) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, event lobby.Event) error

func (f DelivererFunc) Deliver(ctx context.Context, event lobby.Event) error {
	return f(ctx, event)
}

type AsyncSinkConfig struct {
	Name           string
	Workers        int
	DeliverTimeout time.Duration
	// MaxPending bounds the backlog per guild; the oldest events are dropped first.
	MaxPending int
}

// AsyncSink hands events to a Deliverer on a worker pool. Publish never
// blocks. Events of one guild are delivered in publish order, guilds are
// delivered in parallel.
type AsyncSink struct {
	name    string
	next    Deliverer
	pool    *ants.Pool
	logger  *logging.Logger
	timeout time.Duration
	max     int

	mu      sync.Mutex
	pending map[string][]queued
	running map[string]bool
	closed  bool
	wg      sync.WaitGroup
}

type queued struct {
	ctx   context.Context
	event lobby.Event
}

func NewAsyncSink(cfg AsyncSinkConfig, next Deliverer, logger *logging.Logger) (*AsyncSink, error) {
	if next == nil {
		return nil, fmt.Errorf("async sink %q: deliverer is required", cfg.Name)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.DeliverTimeout <= 0 {
		cfg.DeliverTimeout = defaultDeliverTimeout
	}
	if cfg.MaxPending < 1 {
		cfg.MaxPending = defaultMaxPending
	}

	logger = logger.Named("notify").With("sink", cfg.Name)
	pool, err := ants.NewPool(cfg.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("event delivery panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s delivery pool: %w", cfg.Name, err)
	}

	return &AsyncSink{
		name:    cfg.Name,
		next:    next,
		pool:    pool,
		logger:  logger,
		timeout: cfg.DeliverTimeout,
		max:     cfg.MaxPending,
		pending: make(map[string][]queued),
		running: make(map[string]bool),
	}, nil
}

func (s *AsyncSink) Publish(ctx context.Context, event lobby.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	backlog := append(s.pending[event.GuildID], queued{ctx: context.WithoutCancel(ctx), event: event})
	if over := len(backlog) - s.max; over > 0 {
		s.logger.WarnContext(ctx, "event backlog full, dropping oldest",
			"guild_id", event.GuildID,
			"dropped", over,
		)
		backlog = backlog[over:]
	}
	s.pending[event.GuildID] = backlog

	if !s.running[event.GuildID] {
		s.startDrain(ctx, event.GuildID)
	}
}

// startDrain must be called with s.mu held.
func (s *AsyncSink) startDrain(ctx context.Context, guildID string) {
	s.running[guildID] = true
	s.wg.Add(1)
	if err := s.pool.Submit(func() { s.drain(guildID) }); err != nil {
		// Pool is saturated; the next drain to finish or Close takes the backlog.
		s.running[guildID] = false
		s.wg.Done()
		s.logger.WarnContext(ctx, "event delivery deferred", "guild_id", guildID, "error", err)
	}
}

func (s *AsyncSink) drain(guildID string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		backlog := s.pending[guildID]
		if len(backlog) == 0 {
			delete(s.pending, guildID)
			s.running[guildID] = false
			next, ok := s.deferredGuild()
			if !ok {
				s.mu.Unlock()
				return
			}
			s.running[next] = true
			guildID = next
			s.mu.Unlock()
			continue
		}
		item := backlog[0]
		s.pending[guildID] = backlog[1:]
		s.mu.Unlock()

		s.deliver(item)
	}
}

// deferredGuild returns a guild with queued events and no drain running.
// Must be called with s.mu held.
func (s *AsyncSink) deferredGuild() (string, bool) {
	for guildID, backlog := range s.pending {
		if len(backlog) > 0 && !s.running[guildID] {
			return guildID, true
		}
	}
	return "", false
}

func (s *AsyncSink) deliver(item queued) {
	ctx, cancel := context.WithTimeout(item.ctx, s.timeout)
	defer cancel()

	if err := s.next.Deliver(ctx, item.event); err != nil {
		s.logger.WarnContext(ctx, "event delivery failed",
			"guild_id", item.event.GuildID,
			"lobby_id", item.event.LobbyID,
			"type", string(item.event.Type),
			"error", err,
		)
	}
}

// Close stops accepting events and delivers everything already queued. When
// ctx ends first it reports how many events were left undelivered.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	defer s.pool.Release()

	for {
		if err := s.wait(ctx); err != nil {
			return err
		}

		s.mu.Lock()
		guildID, ok := s.deferredGuild()
		if ok {
			s.running[guildID] = true
			s.wg.Add(1)
		}
		s.mu.Unlock()
		if !ok {
			return nil
		}
		go s.drain(guildID)
	}
}

func (s *AsyncSink) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close %s sink: %d events undelivered: %w", s.name, s.pendingCount(), ctx.Err())
	}
}

func (s *AsyncSink) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, backlog := range s.pending {
		n += len(backlog)
	}
	return n
}
