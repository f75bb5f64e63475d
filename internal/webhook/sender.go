package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/devops-agent-webhook/internal/webhook")

const (
	headerSignatureVersion = "X-Webhook-Signature-Version"
	headerTimestamp        = "X-Webhook-Timestamp"
	headerSignature        = "X-Webhook-Signature"

	signatureVersion = "v1"

	requestTimeout = 5 * time.Second
)

// ErrSigningFailure indicates the configured credentials cannot produce a
// request signature.
var ErrSigningFailure = errors.New("cannot sign request")

// DeliveryError reports a failed delivery attempt. Status is zero when the
// request never produced an HTTP response.
type DeliveryError struct {
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("webhook delivery failed with status %d", e.Status)
	}
	return fmt.Sprintf("webhook delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Delivery describes one completed send attempt.
type Delivery struct {
	DryRun    bool
	Timestamp int64
	Signature string
	Body      []byte
	Status    int
}

// Sender delivers signed payloads to the incident webhook.
type Sender interface {
	Send(ctx context.Context, p *Payload) (*Delivery, error)
}

// HTTPSender implements Sender as a single signed HTTPS POST per payload.
// Retries are owned by the invoking platform, not the sender.
type HTTPSender struct {
	client *http.Client
	url    *url.URL
	secret []byte
	dryRun bool
	logger *slog.Logger
}

func NewHTTPSender(endpoint string, secret []byte, dryRun bool, logger *slog.Logger) (*HTTPSender, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse webhook URL: %v", ErrSigningFailure, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid webhook URL %q", ErrSigningFailure, endpoint)
	}

	return &HTTPSender{
		client: &http.Client{Timeout: requestTimeout},
		url:    u,
		secret: secret,
		dryRun: dryRun,
		logger: logger,
	}, nil
}

// Send signs and posts the payload. In dry-run mode it logs the payload and
// signature instead and performs no network I/O.
func (s *HTTPSender) Send(ctx context.Context, p *Payload) (*Delivery, error) {
	ctx, span := tracer.Start(ctx, "webhook.send")
	defer span.End()

	span.SetAttributes(
		attribute.String("alarm.name", p.AlarmName),
		attribute.Bool("webhook.dry_run", s.dryRun),
	)

	if len(s.secret) == 0 {
		return nil, fmt.Errorf("%w: empty webhook secret", ErrSigningFailure)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal payload: %w", err)
	}

	timestamp := time.Now().Unix()
	path := s.url.Path
	if path == "" {
		path = "/"
	}
	signature := Sign(s.secret, http.MethodPost, path, timestamp, body)

	if s.dryRun {
		s.logger.InfoContext(ctx, "dry run enabled, skipping delivery",
			slog.String("alarmName", p.AlarmName),
			slog.String("payload", string(body)),
			slog.String("signature", signature),
		)
		return &Delivery{
			DryRun:    true,
			Timestamp: timestamp,
			Signature: signature,
			Body:      body,
		}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cannot build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerSignatureVersion, signatureVersion)
	req.Header.Set(headerTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(headerSignature, signature)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused by the next invocation.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &DeliveryError{Status: resp.StatusCode}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return &Delivery{
		Timestamp: timestamp,
		Signature: signature,
		Body:      body,
		Status:    resp.StatusCode,
	}, nil
}
