package usecase

import (
	"context"
	"sync"

	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
)

// EventSink receives lobby lifecycle events. Publish is called while the
// guild is locked and must not block; slow sinks wrap themselves in an
// asynchronous dispatcher.
type EventSink interface {
	Publish(ctx context.Context, event lobby.Event)
}

type nopSink struct{}

func (nopSink) Publish(context.Context, lobby.Event) {}

// EventRecorder keeps every published event in memory.
type EventRecorder struct {
	mu     sync.Mutex
	events []lobby.Event
}

func (r *EventRecorder) Publish(_ context.Context, event lobby.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *EventRecorder) Events() []lobby.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lobby.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists the recorded event types in order.
func (r *EventRecorder) Types() []lobby.EventType {
	events := r.Events()
	out := make([]lobby.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func (r *EventRecorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
