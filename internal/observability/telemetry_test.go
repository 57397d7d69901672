package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/contest-awards/internal/config"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
)

func TestStartTracing_DisabledIsNoop(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "disabled", cfg: config.Config{UptraceEnabled: false, ServiceName: "contest-awards-api", AppEnv: config.EnvDev}},
		{name: "enabled without dsn", cfg: config.Config{UptraceEnabled: true, UptraceDSN: "  ", ServiceName: "contest-awards-api", AppEnv: config.EnvDev}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shutdown := startTracing(tc.cfg, logging.NewNop())
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown tracing: %v", err)
			}
		})
	}
}

func TestStartProfiling_Disabled(t *testing.T) {
	stop, err := startProfiling(config.Config{}, logging.NewNop())
	if err != nil {
		t.Fatalf("start profiling: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop profiling: %v", err)
	}
}

func TestStart_AllDisabled(t *testing.T) {
	cfg := config.Config{
		ServiceName: "contest-awards-api",
		AppEnv:      config.EnvDev,
	}

	telemetry, err := Start(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("start telemetry: %v", err)
	}
	if telemetry.pprofServer != nil {
		t.Fatalf("expected no pprof server when disabled")
	}
	if err := telemetry.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown telemetry: %v", err)
	}
}

func TestTelemetry_NilShutdown(t *testing.T) {
	var telemetry *Telemetry
	if err := telemetry.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil telemetry shutdown: %v", err)
	}
}

func TestPprofMux_ServesIndex(t *testing.T) {
	mux := pprofMux()
	_, pattern := mux.Handler(httptest.NewRequest(http.MethodGet, "/debug/pprof/heap", nil))
	if pattern != "GET /debug/pprof/" {
		t.Fatalf("unexpected pattern for heap profile: got=%q want=%q", pattern, "GET /debug/pprof/")
	}
}
