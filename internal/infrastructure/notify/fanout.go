package notify

import (
	"context"

	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
)

// Sink matches usecase.EventSink.
type Sink interface {
	Publish(ctx context.Context, event lobby.Event)
}

// Fanout publishes every event to all sinks. A panicking sink is logged and
// does not stop the others.
type Fanout struct {
	sinks  []Sink
	logger *logging.Logger
}

func NewFanout(logger *logging.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = logging.Default()
	}
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Fanout{sinks: out, logger: logger.Named("notify")}
}

func (f *Fanout) Publish(ctx context.Context, event lobby.Event) {
	for _, s := range f.sinks {
		var pc panics.Catcher
		pc.Try(func() { s.Publish(ctx, event) })
		if r := pc.Recovered(); r != nil {
			f.logger.ErrorContext(ctx, "event sink panicked",
				"guild_id", event.GuildID,
				"type", string(event.Type),
				"panic", r.String(),
			)
		}
	}
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}
