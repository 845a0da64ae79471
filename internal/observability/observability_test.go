package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/inhouse-league/internal/config"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
)

func TestStart_AllDisabled(t *testing.T) {
	logger := logging.NewNop()
	stack, err := Start(config.Config{
		AppEnv:      config.EnvDev,
		ServiceName: "inhouse-league-api",
	}, logger)
	if err != nil {
		t.Fatalf("start observability: %v", err)
	}
	if stack.Logger != logger {
		t.Fatalf("expected logger to be unchanged without uptrace")
	}
	if stack.pprof != nil || stack.profiler != nil || stack.uptrace {
		t.Fatalf("expected no exporters to be running: %+v", stack)
	}
	if err := stack.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestStart_UptraceWithoutDSNStaysDisabled(t *testing.T) {
	stack, err := Start(config.Config{UptraceEnabled: true}, logging.NewNop())
	if err != nil {
		t.Fatalf("start observability: %v", err)
	}
	if stack.uptrace {
		t.Fatalf("expected uptrace to stay off without a DSN")
	}
}

func TestStart_PprofListener(t *testing.T) {
	stack, err := Start(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	if err != nil {
		t.Fatalf("start observability: %v", err)
	}
	if stack.pprof == nil {
		t.Fatalf("expected pprof server")
	}
	if err := stack.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if stack.pprof != nil {
		t.Fatalf("expected pprof server to be released")
	}
}

func TestPprofMux_ServesIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestShutdown_NilStack(t *testing.T) {
	var stack *Stack
	if err := stack.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil stack shutdown: %v", err)
	}
}
