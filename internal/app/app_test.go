package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/config"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:                config.EnvDev,
		ServiceName:           "inhouse-league-api",
		HTTPAddr:              ":0",
		ReadTimeout:           time.Second,
		WriteTimeout:          time.Second,
		StorageDriver:         config.StorageMemory,
		CacheEnabled:          true,
		CacheTTL:              time.Minute,
		CORSAllowedOrigins:    []string{"*"},
		ServiceToken:          "service-secret",
		TickInterval:          time.Second,
		SweepWorkers:          2,
		PersistAttempts:       2,
		PersistBaseBackoff:    time.Millisecond,
		PersistMaxBackoff:     10 * time.Millisecond,
		EventSubscriberBuffer: 8,
		EventDeliveryWorkers:  1,
		EventDeliveryTimeout:  time.Second,
	}
}

func TestNew_MemoryStorageServesHealthz(t *testing.T) {
	application, err := New(memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			t.Fatalf("close app: %v", err)
		}
	}()

	if application.Discord != nil {
		t.Fatalf("expected no discord bot when disabled")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	application.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected healthz status: %d", rec.Code)
	}
}

func TestNew_WebhookSinkIsClosedOnShutdown(t *testing.T) {
	cfg := memoryConfig()
	cfg.WebhookEnabled = true
	cfg.WebhookURL = "http://127.0.0.1:9/events"
	cfg.WebhookTimeout = time.Second
	cfg.WebhookCircuitFailureCount = 1
	cfg.WebhookCircuitOpenTimeout = time.Second
	cfg.WebhookCircuitHalfOpenReq = 1

	application, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	if len(application.sinks) != 1 {
		t.Fatalf("expected one async sink, got %d", len(application.sinks))
	}
	if err := application.Close(context.Background()); err != nil {
		t.Fatalf("close app: %v", err)
	}
	if len(application.sinks) != 0 {
		t.Fatalf("expected sinks to be released on close")
	}
}

func TestNew_RejectsInvalidWebhookURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.WebhookEnabled = true
	cfg.WebhookURL = "not a url"

	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for invalid webhook url")
	}
}

func TestNew_RequiresHTTPAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""

	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty http addr")
	}
}
