package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
)

const defaultSubscriberBuffer = 64

// Broadcaster feeds live event streams. Slow subscribers lose events rather
// than stall the publisher.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = defaultSubscriberBuffer
	}
	return &Broadcaster{subs: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

type Subscription struct {
	GuildID string
	C       <-chan lobby.Event

	ch      chan lobby.Event
	dropped atomic.Int64
	once    sync.Once
	owner   *Broadcaster
}

// Dropped counts events skipped because the subscriber fell behind.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.owner.remove(s)
	})
}

// Subscribe starts receiving the events of guildID.
func (b *Broadcaster) Subscribe(guildID string) *Subscription {
	ch := make(chan lobby.Event, b.buffer)
	sub := &Subscription{GuildID: guildID, C: ch, ch: ch, owner: b}

	b.mu.Lock()
	if b.subs[guildID] == nil {
		b.subs[guildID] = make(map[*Subscription]struct{})
	}
	b.subs[guildID][sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.subs[sub.GuildID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.GuildID)
		}
	}
	close(sub.ch)
}

func (b *Broadcaster) Publish(_ context.Context, event lobby.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[event.GuildID] {
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of open streams for guildID.
func (b *Broadcaster) Subscribers(guildID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[guildID])
}
