package observability

import (
	"context"
	"errors"
	"strings"

	"github.com/grafana/pyroscope-go"
	"github.com/jeromehjj/fpl-playmaker/internal/config"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const commandTracerName = "fpl-playmaker/cmd/playmaker"

// Telemetry owns the exporters of one process: Uptrace traces and logs,
// and Pyroscope profiles. Both are optional.
type Telemetry struct {
	tracing  bool
	profiler *pyroscope.Profiler
	logger   *logging.Logger
}

// Start configures the exporters enabled in cfg. Call Shutdown once the
// process is done so buffered spans and logs are flushed.
func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger.Named("telemetry")}

	t.tracing = t.startUptrace(cfg)

	profiler, err := t.startPyroscope(cfg)
	if err != nil {
		_ = t.Shutdown(context.Background())
		return nil, err
	}
	t.profiler = profiler
	return t, nil
}

func (t *Telemetry) startUptrace(cfg config.Config) bool {
	if !cfg.UptraceEnabled || strings.TrimSpace(cfg.UptraceDSN) == "" {
		logging.SetMirror(nil)
		t.logger.Debug("uptrace disabled", "enabled", cfg.UptraceEnabled, "dsn_set", cfg.UptraceDSN != "")
		return false
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
		uptrace.WithResourceAttributes(
			attribute.String("fpl.db_driver", cfg.DBDriver),
			attribute.String("fpl.base_url", cfg.FPLBaseURL),
		),
	)
	if cfg.UptraceLogsEnabled {
		logging.SetMirror(newUptraceLogMirror(cfg.ServiceVersion))
	} else {
		logging.SetMirror(nil)
	}

	t.logger.Info("uptrace enabled",
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
		"logs_enabled", cfg.UptraceLogsEnabled,
	)
	return true
}

func (t *Telemetry) startPyroscope(cfg config.Config) (*pyroscope.Profiler, error) {
	if !cfg.PyroscopeEnabled {
		t.logger.Debug("pyroscope disabled")
		return nil, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":       cfg.AppEnv,
			"service":   cfg.ServiceName,
			"db_driver": cfg.DBDriver,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return profiler, nil
}

// Run executes one CLI command under a root span, so use-case spans attach
// to it, and labels its profiles with the command name.
func (t *Telemetry) Run(ctx context.Context, command string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer(commandTracerName).Start(ctx, "playmaker "+command)
	defer span.End()
	span.SetAttributes(attribute.String("playmaker.command", command))

	var err error
	if t != nil && t.profiler != nil {
		pyroscope.TagWrapper(ctx, pyroscope.Labels("command", command), func(ctx context.Context) {
			err = fn(ctx)
		})
	} else {
		err = fn(ctx)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Shutdown flushes and stops every started exporter.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			errs = append(errs, err)
		}
		t.profiler = nil
	}
	if t.tracing {
		logging.SetMirror(nil)
		if err := uptrace.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		t.tracing = false
	}
	return errors.Join(errs...)
}
