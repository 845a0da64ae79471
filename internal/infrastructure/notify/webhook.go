package notify

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/riskibarqy/inhouse-league/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type WebhookConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	Retry          resilience.RetryPolicy
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookPublisher posts lifecycle events as JSON to an external endpoint.
type WebhookPublisher struct {
	client         *http.Client
	url            string
	token          string
	retry          resilience.RetryPolicy
	sleep          resilience.Sleeper
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

type webhookPayload struct {
	DeliveryID string      `json:"delivery_id"`
	Event      lobby.Event `json:"event"`
}

func NewWebhookPublisher(cfg WebhookConfig, logger *logging.Logger) (*WebhookPublisher, error) {
	target, err := validateHTTPURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid webhook url")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	p := &WebhookPublisher{
		client:         &http.Client{Timeout: timeout},
		url:            target,
		token:          strings.TrimSpace(cfg.Token),
		retry:          resilience.NormalizeRetryPolicy(cfg.Retry),
		sleep:          resilience.SleepContext,
		logger:         logger.Named("webhook"),
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
	p.breaker.OnStateChange(func(from, to resilience.CircuitState) {
		p.logger.Warn("webhook circuit breaker changed state", "from", string(from), "to", string(to))
	})
	return p, nil
}

// Deliver posts one event, retrying transient failures. Client errors are
// not retried.
func (p *WebhookPublisher) Deliver(ctx context.Context, event lobby.Event) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(webhookPayload{DeliveryID: deliveryID(event), Event: event}); err != nil {
		return crerr.Wrap(err, "marshal webhook payload")
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", p.url),
			attribute.String("webhook.event_type", string(event.Type)),
			attribute.String("webhook.lobby_id", event.LobbyID),
		)
	}

	return resilience.Retry(ctx, p.retry, p.sleep, func(ctx context.Context, attempt int) error {
		err := p.post(ctx, event, buf.B)
		if err == nil {
			p.logger.DebugContext(ctx, "webhook delivered",
				"guild_id", event.GuildID,
				"lobby_id", event.LobbyID,
				"type", string(event.Type),
				"attempt", attempt,
			)
			return nil
		}
		if !isWebhookTransient(err) {
			return resilience.Permanent(err)
		}
		return err
	})
}

func (p *WebhookPublisher) post(ctx context.Context, event lobby.Event, body []byte) error {
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
		if err != nil {
			return crerr.Wrap(err, "create webhook request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Inhouse-Event", string(event.Type))
		req.Header.Set("Idempotency-Key", deliveryID(event))
		if p.token != "" {
			req.Header.Set("Authorization", "Bearer "+p.token)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: post webhook: %v", errWebhookTransient, err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode/100 == 2 {
			return nil
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: webhook status=%d body=%s", errWebhookTransient, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("webhook status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if !p.circuitEnabled {
		return call(ctx)
	}

	var answered error
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		err := call(ctx)
		if err != nil && !isWebhookTransient(err) {
			// The endpoint answered; only transport trouble trips the breaker.
			answered = err
			return nil
		}
		return err
	})
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "webhook circuit breaker rejected request", "state", string(p.breaker.State()))
		return resilience.Permanent(crerr.Wrap(err, "webhook is temporarily unavailable"))
	}
	if err != nil {
		return err
	}
	return answered
}

func deliveryID(event lobby.Event) string {
	return fmt.Sprintf("%s:%s:%d", event.LobbyID, event.Type, event.At.UnixNano())
}

func isWebhookTransient(err error) bool {
	return err != nil && stderrors.Is(err, errWebhookTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
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
