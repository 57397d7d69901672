package notifier

import (
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"github.com/riskibarqy/contest-awards/internal/platform/metrics"
	"github.com/riskibarqy/contest-awards/internal/platform/resilience"
	"github.com/riskibarqy/contest-awards/internal/usecase"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestServer(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go func() {
		_ = server.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = server.Shutdown()
		_ = ln.Close()
	})

	return &fasthttp.Client{
		Dial: func(string) (net.Conn, error) {
			return ln.Dial()
		},
	}
}

func testNotice() usecase.SubmissionNotice {
	return usecase.SubmissionNotice{
		OperatorCallsign: "K1AR",
		StationCallsign:  "W1WEF",
		Contest:          "CQWW",
		Year:             2024,
		ClaimedScore:     5_420_000,
		Status:           "accepted",
		SubmissionID:     "sub-1",
	}
}

func TestWebhookNotifier_PostsNotice(t *testing.T) {
	t.Parallel()

	var (
		gotAuth        atomic.Value
		gotIdempotency atomic.Value
		gotNotice      atomic.Value
	)
	client := newTestServer(t, func(ctx *fasthttp.RequestCtx) {
		gotAuth.Store(string(ctx.Request.Header.Peek("Authorization")))
		gotIdempotency.Store(string(ctx.Request.Header.Peek("Idempotency-Key")))
		var notice usecase.SubmissionNotice
		if err := sonic.Unmarshal(ctx.PostBody(), &notice); err == nil {
			gotNotice.Store(notice)
		}
		ctx.SetStatusCode(fasthttp.StatusAccepted)
	})

	n, err := NewWebhookNotifier(WebhookConfig{URL: "http://notify.test/hooks/submission", Token: "secret", Client: client}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	if err := n.NotifySubmission(context.Background(), testNotice()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if got := gotAuth.Load(); got != "Bearer secret" {
		t.Fatalf("unexpected authorization header: %v", got)
	}
	if got := gotIdempotency.Load(); got != "sub-1:K1AR" {
		t.Fatalf("unexpected idempotency key: %v", got)
	}
	notice, _ := gotNotice.Load().(usecase.SubmissionNotice)
	if notice.Contest != "CQWW" || notice.ClaimedScore != 5_420_000 {
		t.Fatalf("unexpected decoded notice: %+v", notice)
	}
}

func TestWebhookNotifier_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestServer(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	n, err := NewWebhookNotifier(WebhookConfig{
		URL:            "http://notify.test/hook",
		Client:         client,
		MaxRetries:     3,
		RetryBackoff:   time.Millisecond,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 10},
	}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	if err := n.NotifySubmission(context.Background(), testNotice()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("unexpected attempts got=%d want=3", got)
	}
}

func TestWebhookNotifier_DoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestServer(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"error":"bad notice"}`)
	})

	n, err := NewWebhookNotifier(WebhookConfig{URL: "http://notify.test/hook", Client: client, MaxRetries: 3, RetryBackoff: time.Millisecond}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	err = n.NotifySubmission(context.Background(), testNotice())
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("expected status=400 error, got=%v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("unexpected attempts got=%d want=1", got)
	}
}

func TestWebhookNotifier_OpensCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestServer(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
	})

	manager := metrics.NewManager()
	n, err := NewWebhookNotifier(WebhookConfig{
		URL:    "http://notify.test/hook",
		Client: client,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
		},
	}, manager, logging.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := n.NotifySubmission(ctx, testNotice()); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}
	err = n.NotifySubmission(ctx, testNotice())
	if err == nil || !strings.Contains(err.Error(), resilience.ErrCircuitOpen.Error()) {
		t.Fatalf("expected circuit open error, got=%v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("unexpected upstream calls got=%d want=2", got)
	}
}

func TestNewWebhookNotifier_RejectsBadURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://notify.test", "http://"} {
		if _, err := NewWebhookNotifier(WebhookConfig{URL: raw}, nil, logging.NewNop()); err == nil {
			t.Fatalf("expected error for url=%q", raw)
		}
	}
}

func TestBuildCurlPreview_MasksToken(t *testing.T) {
	t.Parallel()

	got := buildCurlPreview("https://notify.test/hook", "sub-1:K1AR", `{"name":"o'hara"}`, true)
	if !strings.Contains(got, "Authorization: Bearer ***") {
		t.Fatalf("expected masked token, got=%s", got)
	}
	if !strings.Contains(got, `'{"name":"o'"'"'hara"}'`) {
		t.Fatalf("expected shell quoted body, got=%s", got)
	}
}
