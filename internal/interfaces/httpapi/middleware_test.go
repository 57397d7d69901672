package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogging_LevelFollowsStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "ok", status: http.StatusOK, wantLevel: zapcore.InfoLevel},
		{name: "client error", status: http.StatusUnprocessableEntity, wantLevel: zapcore.InfoLevel},
		{name: "server error", status: http.StatusServiceUnavailable, wantLevel: zapcore.ErrorLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.DebugLevel)
			logger := logging.FromZap(zap.New(core))
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})

			rec := httptest.NewRecorder()
			RequestLogging(logger, next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/submissions", nil))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("unexpected log entries got=%d want=1", len(entries))
			}
			entry := entries[0]
			if entry.Level != tc.wantLevel {
				t.Fatalf("unexpected level got=%s want=%s", entry.Level, tc.wantLevel)
			}
			if got := entry.ContextMap()["status"]; got != int64(tc.status) {
				t.Fatalf("unexpected status field got=%v want=%d", got, tc.status)
			}
		})
	}
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	t.Parallel()

	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	if rec.statusCode() != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", rec.statusCode())
	}

	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusInternalServerError)
	if rec.statusCode() != http.StatusCreated {
		t.Fatalf("expected first status kept, got %d", rec.statusCode())
	}
}
