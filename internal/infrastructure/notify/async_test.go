package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
)

type recordingDeliverer struct {
	mu     sync.Mutex
	events map[string][]lobby.Event
	delay  time.Duration
	fail   bool
}

func (d *recordingDeliverer) Deliver(_ context.Context, event lobby.Event) error {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.events == nil {
		d.events = make(map[string][]lobby.Event)
	}
	d.events[event.GuildID] = append(d.events[event.GuildID], event)
	if d.fail {
		return errors.New("boom")
	}
	return nil
}

func (d *recordingDeliverer) lobbyIDs(guildID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.events[guildID]))
	for _, e := range d.events[guildID] {
		out = append(out, e.LobbyID)
	}
	return out
}

func TestAsyncSink_PreservesOrderPerGuild(t *testing.T) {
	t.Parallel()

	next := &recordingDeliverer{delay: time.Millisecond}
	sink, err := NewAsyncSink(AsyncSinkConfig{Name: "test", Workers: 4}, next, logging.NewNop())
	if err != nil {
		t.Fatalf("new async sink: %v", err)
	}

	guilds := []string{"g1", "g2", "g3"}
	for i := 0; i < 20; i++ {
		for _, g := range guilds {
			sink.Publish(t.Context(), lobby.Event{GuildID: g, LobbyID: fmt.Sprintf("l%02d", i), Type: lobby.EventLobbyFormed})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, g := range guilds {
		got := next.lobbyIDs(g)
		if len(got) != 20 {
			t.Fatalf("guild %s: expected 20 deliveries, got %d", g, len(got))
		}
		for i, id := range got {
			if want := fmt.Sprintf("l%02d", i); id != want {
				t.Fatalf("guild %s: out of order at %d: got %s want %s", g, i, id, want)
			}
		}
	}
}

func TestAsyncSink_FailuresAreLoggedNotReturned(t *testing.T) {
	t.Parallel()

	next := &recordingDeliverer{fail: true}
	sink, err := NewAsyncSink(AsyncSinkConfig{Name: "failing"}, next, logging.NewNop())
	if err != nil {
		t.Fatalf("new async sink: %v", err)
	}
	sink.Publish(t.Context(), lobby.Event{GuildID: "g1", LobbyID: "l1"})
	sink.Publish(t.Context(), lobby.Event{GuildID: "g1", LobbyID: "l2"})

	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := next.lobbyIDs("g1"); len(got) != 2 {
		t.Fatalf("expected both attempts, got %v", got)
	}
}

func TestAsyncSink_DropsOldestWhenBacklogFull(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []string
	blocking := DelivererFunc(func(_ context.Context, event lobby.Event) error {
		<-release
		mu.Lock()
		delivered = append(delivered, event.LobbyID)
		mu.Unlock()
		return nil
	})

	sink, err := NewAsyncSink(AsyncSinkConfig{Name: "bounded", Workers: 1, MaxPending: 2}, blocking, logging.NewNop())
	if err != nil {
		t.Fatalf("new async sink: %v", err)
	}

	sink.Publish(t.Context(), lobby.Event{GuildID: "g1", LobbyID: "first"})
	// Wait until the drain picked up "first" so the backlog below is exact.
	deadline := time.Now().Add(2 * time.Second)
	for {
		sink.mu.Lock()
		picked := len(sink.pending["g1"]) == 0
		sink.mu.Unlock()
		if picked || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	for _, id := range []string{"a", "b", "c"} {
		sink.Publish(t.Context(), lobby.Event{GuildID: "g1", LobbyID: id})
	}
	close(release)

	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "b", "c"}
	if fmt.Sprint(delivered) != fmt.Sprint(want) {
		t.Fatalf("unexpected deliveries: got %v want %v", delivered, want)
	}
}

// guildBlocker holds deliveries of one guild until released and records the
// guild of every delivered event.
type guildBlocker struct {
	blocked string
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu        sync.Mutex
	delivered []string
}

func newGuildBlocker(guildID string) *guildBlocker {
	return &guildBlocker{blocked: guildID, started: make(chan struct{}), release: make(chan struct{})}
}

func (b *guildBlocker) Deliver(_ context.Context, event lobby.Event) error {
	if event.GuildID == b.blocked {
		b.once.Do(func() { close(b.started) })
		<-b.release
	}
	b.mu.Lock()
	b.delivered = append(b.delivered, event.GuildID)
	b.mu.Unlock()
	return nil
}

func (b *guildBlocker) guilds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.delivered...)
}

func TestAsyncSink_DeferredGuildIsDeliveredWhenWorkerFrees(t *testing.T) {
	t.Parallel()

	next := newGuildBlocker("a")
	sink, err := NewAsyncSink(AsyncSinkConfig{Name: "saturated", Workers: 1}, next, logging.NewNop())
	if err != nil {
		t.Fatalf("new async sink: %v", err)
	}

	sink.Publish(t.Context(), lobby.Event{GuildID: "a", LobbyID: "l1", Type: lobby.EventMatchStarted})
	<-next.started
	// The only worker is busy, so guild b cannot get a drain of its own.
	sink.Publish(t.Context(), lobby.Event{GuildID: "b", LobbyID: "l2", Type: lobby.EventMatchCompleted})
	close(next.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := next.guilds(); fmt.Sprint(got) != fmt.Sprint([]string{"a", "b"}) {
		t.Fatalf("expected both guilds delivered, got %v", got)
	}
}

func TestAsyncSink_CloseReportsUndeliveredEvents(t *testing.T) {
	t.Parallel()

	next := newGuildBlocker("a")
	sink, err := NewAsyncSink(AsyncSinkConfig{Name: "stuck", Workers: 1}, next, logging.NewNop())
	if err != nil {
		t.Fatalf("new async sink: %v", err)
	}
	defer close(next.release)

	sink.Publish(t.Context(), lobby.Event{GuildID: "a", LobbyID: "l1"})
	<-next.started
	sink.Publish(t.Context(), lobby.Event{GuildID: "b", LobbyID: "l2"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = sink.Close(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 events undelivered") {
		t.Fatalf("expected undelivered count in error, got %v", err)
	}
}

func TestNewAsyncSink_RequiresDeliverer(t *testing.T) {
	t.Parallel()

	if _, err := NewAsyncSink(AsyncSinkConfig{Name: "nil"}, nil, nil); err == nil {
		t.Fatalf("expected error for nil deliverer")
	}
}
