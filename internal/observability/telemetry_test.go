package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/jeromehjj/fpl-playmaker/internal/config"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
)

func TestStart_AllDisabled(t *testing.T) {
	cfg := config.Config{
		AppEnv:         config.EnvDev,
		ServiceName:    "fpl-playmaker",
		ServiceVersion: "dev",
		UptraceEnabled: true,
		UptraceDSN:     "",
	}

	tel, err := Start(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("start telemetry: %v", err)
	}
	if tel.tracing || tel.profiler != nil {
		t.Fatalf("expected no exporters without dsn or pyroscope, got tracing=%t profiler=%v", tel.tracing, tel.profiler)
	}
	if err := tel.Shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown telemetry: %v", err)
	}
}

func TestTelemetry_RunPassesContextAndError(t *testing.T) {
	tel, err := Start(config.Config{AppEnv: config.EnvDev}, logging.NewNop())
	if err != nil {
		t.Fatalf("start telemetry: %v", err)
	}

	type ctxKey struct{}
	ctx := context.WithValue(t.Context(), ctxKey{}, "sync-bootstrap")
	wantErr := errors.New("upstream down")

	var seen any
	err = tel.Run(ctx, "sync-bootstrap", func(ctx context.Context) error {
		seen = ctx.Value(ctxKey{})
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected command error to be returned, got %v", err)
	}
	if seen != "sync-bootstrap" {
		t.Fatalf("expected caller context to flow into the command, got %v", seen)
	}
}

func TestTelemetry_NilIsSafe(t *testing.T) {
	var tel *Telemetry
	called := false
	if err := tel.Run(t.Context(), "ticker", func(context.Context) error { called = true; return nil }); err != nil || !called {
		t.Fatalf("expected nil telemetry to run the command, called=%t err=%v", called, err)
	}
	if err := tel.Shutdown(t.Context()); err != nil {
		t.Fatalf("expected nil shutdown to succeed: %v", err)
	}
}
