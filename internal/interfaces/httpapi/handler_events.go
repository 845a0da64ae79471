package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/coder/websocket"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

const eventWriteTimeout = 5 * time.Second

var errEventsUnavailable = fmt.Errorf("%w: event stream is not enabled", usecase.ErrDependencyUnavailable)

// StreamEvents upgrades to a websocket and forwards the guild's lobby events
// as JSON text frames until the client goes away.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	guildID := guildIDFromPath(r)
	if guildID == "" {
		writeError(r.Context(), w, fmt.Errorf("%w: guild id is required", usecase.ErrInvalidInput))
		return
	}
	if h.events == nil {
		writeError(r.Context(), w, errEventsUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.eventOrigins,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket accept failed", "guild_id", guildID, "error", err)
		return
	}
	defer conn.CloseNow()

	sub := h.events.Subscribe(guildID)
	defer sub.Close()

	// Inbound frames are ignored; CloseRead cancels ctx once the peer closes.
	ctx := conn.CloseRead(r.Context())
	h.logger.InfoContext(ctx, "event stream opened", "guild_id", guildID)

	for {
		select {
		case <-ctx.Done():
			h.logger.InfoContext(context.WithoutCancel(ctx), "event stream closed", "guild_id", guildID, "dropped", sub.Dropped())
			return
		case event, ok := <-sub.C:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeEvent(ctx, conn, event); err != nil {
				h.logger.WarnContext(ctx, "event stream write failed", "guild_id", guildID, "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, event lobby.Event) error {
	payload, err := sonic.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
