package notifier

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"github.com/riskibarqy/contest-awards/internal/platform/metrics"
	"github.com/riskibarqy/contest-awards/internal/platform/resilience"
	"github.com/riskibarqy/contest-awards/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	breakerName         = "submission_webhook"
	defaultTimeout      = 5 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
	maxLoggedBody       = 2048
)

var errWebhookTransient = crerr.New("webhook transient failure")

type WebhookConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	// Client overrides the fasthttp client, mainly for tests.
	Client *fasthttp.Client
}

// WebhookNotifier posts one JSON notice per member operator to an external
// endpoint, typically the club mailer.
type WebhookNotifier struct {
	client         *fasthttp.Client
	url            string
	token          string
	timeout        time.Duration
	maxRetries     int
	retryBackoff   time.Duration
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
}

func NewWebhookNotifier(cfg WebhookConfig, metricsManager *metrics.Manager, logger *logging.Logger) (*WebhookNotifier, error) {
	target, err := validateHTTPURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid NOTIFY_WEBHOOK_URL")
	}
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	client := cfg.Client
	if client == nil {
		client = &fasthttp.Client{
			Name:                "contest-awards-notifier",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		}
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker(breakerName, breakerCfg)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		metricsManager.SetCircuitOpen(name, to == resilience.CircuitStateOpen)
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
	})

	return &WebhookNotifier{
		client:         client,
		url:            target,
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		maxRetries:     max(cfg.MaxRetries, 0),
		retryBackoff:   backoff,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger.Named("notifier"),
	}, nil
}

func (n *WebhookNotifier) NotifySubmission(ctx context.Context, notice usecase.SubmissionNotice) error {
	body, err := sonic.Marshal(notice)
	if err != nil {
		return crerr.Wrap(err, "marshal submission notice")
	}
	idempotencyKey := notice.SubmissionID + ":" + notice.OperatorCallsign

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("notifier.url", n.url),
			attribute.String("notifier.submission_id", notice.SubmissionID),
			attribute.String("notifier.operator", notice.OperatorCallsign),
		)
	}
	if n.logger.Enabled(logging.LevelDebug) {
		n.logger.DebugContext(ctx, "webhook notify request",
			"submission_id", notice.SubmissionID,
			"curl_preview", buildCurlPreview(n.url, idempotencyKey, truncateForLog(string(body), maxLoggedBody), n.token != ""),
		)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, n.retryBackoff*time.Duration(attempt)); err != nil {
				return crerr.Wrapf(lastErr, "notify aborted after %d attempt(s)", attempt)
			}
		}
		if n.circuitEnabled {
			if err := n.breaker.Allow(); err != nil {
				return fmt.Errorf("submission webhook is temporarily unavailable: %w", err)
			}
		}

		lastErr = n.send(ctx, body, idempotencyKey)
		n.recordCircuitResult(lastErr)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		n.logger.WarnContext(ctx, "webhook notify attempt failed",
			"attempt", attempt+1,
			"submission_id", notice.SubmissionID,
			"error", lastErr,
		)
	}
	return lastErr
}

func (n *WebhookNotifier) send(ctx context.Context, body []byte, idempotencyKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	req.SetBody(body)

	deadline := time.Now().Add(n.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := n.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%w: post webhook url=%s: %v", errWebhookTransient, n.url, err)
	}

	status := resp.StatusCode()
	if status/100 == 2 {
		return nil
	}
	raw := truncateForLog(strings.TrimSpace(string(resp.Body())), maxLoggedBody)
	if isRetryableStatus(status) {
		return fmt.Errorf("%w: post webhook status=%d body=%s", errWebhookTransient, status, raw)
	}
	return crerr.Newf("post webhook status=%d body=%s", status, raw)
}

func (n *WebhookNotifier) recordCircuitResult(err error) {
	if !n.circuitEnabled {
		return
	}
	if err != nil && isTransient(err) {
		n.breaker.RecordFailure()
		return
	}
	n.breaker.RecordSuccess()
}

func isTransient(err error) bool {
	return stderrors.Is(err, errWebhookTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return candidate, nil
}

func buildCurlPreview(target, idempotencyKey, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(target))
	appendHeader("Content-Type: application/json")
	appendHeader("Idempotency-Key: " + idempotencyKey)
	if withToken {
		appendHeader("Authorization: Bearer ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))
	appendPart("#")
	appendPart(shellQuote("bytes=" + strconv.Itoa(len(body))))
	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "...(truncated)"
}
