package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/inhouse-league/internal/config"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
)

// startUptrace installs the global OpenTelemetry providers. It returns the
// logger to use from now on and whether the exporter is running.
func startUptrace(cfg config.Config, logger *logging.Logger) (*logging.Logger, bool) {
	if !cfg.UptraceEnabled || strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "enabled", cfg.UptraceEnabled)
		return logger, false
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(attribute.String("inhouse.storage_driver", cfg.StorageDriver)),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)

	if cfg.UptraceLogsEnabled {
		exporter := otelglobal.Logger(logInstrumentation, otellog.WithInstrumentationVersion(cfg.ServiceVersion))
		logger = logger.Tee(newLogCore(exporter, cfg.LogLevel))
	}

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
		"logs_enabled", cfg.UptraceLogsEnabled,
	)
	return logger, true
}

func shutdownUptrace(ctx context.Context) error {
	return uptrace.Shutdown(ctx)
}
