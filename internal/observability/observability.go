package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/inhouse-league/internal/config"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
)

// Stack holds the telemetry exporters started for the process.
type Stack struct {
	// Logger is the process logger, tee'd to Uptrace when log export is on.
	Logger *logging.Logger

	uptrace  bool
	profiler *pyroscope.Profiler
	pprof    *http.Server
}

// Start brings up tracing, continuous profiling and the pprof listener as
// configured. Anything already started is shut down when a later step fails.
func Start(cfg config.Config, logger *logging.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Stack{}
	s.Logger, s.uptrace = startUptrace(cfg, logger)

	profiler, err := startProfiler(cfg, s.Logger)
	if err != nil {
		_ = s.Shutdown(context.Background())
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	s.profiler = profiler
	s.pprof = startPprof(cfg, s.Logger)

	return s, nil
}

// Shutdown stops the exporters in reverse start order.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var err error
	if s.pprof != nil {
		if shutdownErr := s.pprof.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("stop pprof: %w", shutdownErr))
		}
		s.pprof = nil
	}
	if s.profiler != nil {
		if stopErr := s.profiler.Stop(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("stop pyroscope: %w", stopErr))
		}
		s.profiler = nil
	}
	if s.uptrace {
		if shutdownErr := shutdownUptrace(ctx); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("stop uptrace: %w", shutdownErr))
		}
		s.uptrace = false
	}
	return err
}
