package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/contest-awards/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_LOG_LEVEL", "")
	t.Setenv("APP_LOG_FORMAT", "")
	t.Setenv("RECOMPUTE_MAX_WORKERS", "")
	t.Setenv("UPLOAD_MAX_BYTES", "")
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("APP_SERVICE_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "contest-awards-api" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
	if cfg.StorageDriver != StorageDriverPostgres {
		t.Fatalf("unexpected storage driver: %q", cfg.StorageDriver)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("unexpected log format for dev: %q", cfg.LogFormat)
	}
	if cfg.RecomputeMaxWorkers != 4 {
		t.Fatalf("unexpected recompute workers: got=%d want=4", cfg.RecomputeMaxWorkers)
	}
	if cfg.UploadMaxBytes != 5<<20 {
		t.Fatalf("unexpected upload max bytes: got=%d want=%d", cfg.UploadMaxBytes, 5<<20)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("expected metrics enabled by default")
	}
	if cfg.NotifyEnabled {
		t.Fatalf("expected notifications disabled by default")
	}
}

func TestLoad_LogFormatDefaultsToJSONOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_LOG_FORMAT", "")
	t.Setenv("APP_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("unexpected log format: %q", cfg.LogFormat)
	}
	if cfg.LogLevel != logging.LevelWarn {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}

	t.Setenv("APP_LOG_FORMAT", "xml")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_LOG_FORMAT")
	}
}

func TestLoad_StorageDriver(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("memory", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "Memory")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StorageDriver != StorageDriverMemory {
			t.Fatalf("unexpected storage driver: %q", cfg.StorageDriver)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORAGE_DRIVER")
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-other=1, uptrace-dsn=\"https://token@api.uptrace.dev/1\"")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PprofDefaultAddr(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.PprofEnabled {
		t.Fatalf("expected PprofEnabled=true")
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("unexpected PprofAddr: %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeConfig(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("requires server address", func(t *testing.T) {
		t.Setenv("PYROSCOPE_ENABLED", "true")
		t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
		}
	})

	t.Run("app name defaults to service name", func(t *testing.T) {
		t.Setenv("PYROSCOPE_ENABLED", "true")
		t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
		t.Setenv("PYROSCOPE_APP_NAME", "")
		t.Setenv("APP_SERVICE_NAME", "contest-awards-worker")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.PyroscopeAppName != "contest-awards-worker" {
			t.Fatalf("unexpected PyroscopeAppName: %q", cfg.PyroscopeAppName)
		}
		if cfg.PyroscopeUploadRate != 15*time.Second {
			t.Fatalf("unexpected PyroscopeUploadRate: %s", cfg.PyroscopeUploadRate)
		}
	})
}

func TestLoad_CORSAllowedOrigins(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("parses csv", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://yccc.org, http://localhost:3000 ,")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected origins count: got=%d want=2", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:3000" {
			t.Fatalf("unexpected origin: %q", cfg.CORSAllowedOrigins[1])
		}
	})

	t.Run("rejects only separators", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for empty CORS_ALLOWED_ORIGINS")
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResult(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.DBDisablePreparedBinary {
		t.Fatalf("expected prepared binary results disabled by default")
	}

	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "nope")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
	}
}

func TestLoad_CacheConfig(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_RecomputeAndUploadLimits(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero workers", key: "RECOMPUTE_MAX_WORKERS", value: "0"},
		{name: "non numeric workers", key: "RECOMPUTE_MAX_WORKERS", value: "many"},
		{name: "zero upload", key: "UPLOAD_MAX_BYTES", value: "0"},
		{name: "non numeric upload", key: "UPLOAD_MAX_BYTES", value: "5MB"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_NotifyConfig(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("enabled requires webhook url", func(t *testing.T) {
		t.Setenv("NOTIFY_ENABLED", "true")
		t.Setenv("NOTIFY_WEBHOOK_URL", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when NOTIFY_ENABLED=true without NOTIFY_WEBHOOK_URL")
		}
	})

	t.Run("rejects relative url", func(t *testing.T) {
		t.Setenv("NOTIFY_ENABLED", "true")
		t.Setenv("NOTIFY_WEBHOOK_URL", "/hooks/awards")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for relative NOTIFY_WEBHOOK_URL")
		}
	})

	t.Run("enabled with valid values", func(t *testing.T) {
		t.Setenv("NOTIFY_ENABLED", "true")
		t.Setenv("NOTIFY_WEBHOOK_URL", "https://hooks.yccc.org/awards")
		t.Setenv("NOTIFY_TOKEN", " secret ")
		t.Setenv("NOTIFY_TIMEOUT", "3s")
		t.Setenv("NOTIFY_MAX_RETRIES", "4")
		t.Setenv("NOTIFY_CIRCUIT_FAILURE_COUNT", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.NotifyEnabled {
			t.Fatalf("expected NotifyEnabled=true")
		}
		if cfg.NotifyToken != "secret" {
			t.Fatalf("unexpected notify token: %q", cfg.NotifyToken)
		}
		if cfg.NotifyTimeout != 3*time.Second {
			t.Fatalf("unexpected notify timeout: %s", cfg.NotifyTimeout)
		}
		if cfg.NotifyMaxRetries != 4 {
			t.Fatalf("unexpected notify retries: got=%d want=4", cfg.NotifyMaxRetries)
		}
		if !cfg.NotifyCircuitEnabled || cfg.NotifyCircuitFailureCount != 5 {
			t.Fatalf("unexpected circuit defaults: enabled=%v failures=%d", cfg.NotifyCircuitEnabled, cfg.NotifyCircuitFailureCount)
		}
	})

	t.Run("negative retries", func(t *testing.T) {
		t.Setenv("NOTIFY_MAX_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative NOTIFY_MAX_RETRIES")
		}
	})
}
