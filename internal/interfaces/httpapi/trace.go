package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer = otel.Tracer("inhouse-league/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

// startRequestSpan opens a handler span tagged with the guild from the path.
func startRequestSpan(r *http.Request, name string) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	if guildID := guildIDFromPath(r); guildID != "" {
		attrs = append(attrs, attribute.String("guild.id", guildID))
	}
	if lobbyID := strings.TrimSpace(r.PathValue("lobbyID")); lobbyID != "" {
		attrs = append(attrs, attribute.String("lobby.id", lobbyID))
	}
	return startSpan(r.Context(), name, attrs...)
}

// startSpan only creates spans for handlers below a sampled request span.
// Middleware and response helpers return a no-op span.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !isHandlerSpan(name) || !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func isHandlerSpan(name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix)
}
