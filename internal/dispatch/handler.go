// Package dispatch orchestrates the normalize, resolve, and deliver stages
// for each invocation.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/config"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/metrics"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/policy"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/webhook"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/devops-agent-webhook/internal/dispatch")

// Outcome is the terminal state of one alarm record.
type Outcome string

const (
	OutcomeSent    Outcome = "SENT"
	OutcomeDryRun  Outcome = "DRY_RUN"
	OutcomeIgnored Outcome = "IGNORED"
	OutcomeFailed  Outcome = "FAILED"
)

// Result reports how one alarm record terminated.
type Result struct {
	AlarmName   string         `json:"alarmName,omitempty"`
	Outcome     Outcome        `json:"outcome"`
	Priority    alarm.Priority `json:"priority,omitempty"`
	ServiceName string         `json:"serviceName,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

// Response summarizes one invocation.
type Response struct {
	Processed int      `json:"processed"`
	Results   []Result `json:"results"`
}

// Handler runs the dispatch pipeline. It holds no per-invocation state, so
// one handler serves concurrent invocations.
type Handler struct {
	resolver policy.Resolver
	sampler  metrics.Sampler
	sender   webhook.Sender
	cfg      *config.Config
	logger   *slog.Logger
}

func NewHandler(
	resolver policy.Resolver,
	sampler metrics.Sampler,
	sender webhook.Sender,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		resolver: resolver,
		sampler:  sampler,
		sender:   sender,
		cfg:      cfg,
		logger:   logger,
	}
}

// Handle processes one raw invocation event. Every record terminates with a
// result; the returned error joins the failures so the platform retries the
// whole event, which is safe because dispatch tolerates duplicates.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (*Response, error) {
	ctx, span := tracer.Start(ctx, "dispatch.handle")
	defer span.End()

	records, transport, err := alarm.Decode(raw)
	if err != nil {
		h.logger.ErrorContext(ctx, "cannot decode event",
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("event.transport", string(transport)),
		attribute.Int("event.records", len(records)),
	)

	resp := &Response{Results: make([]Result, 0, len(records))}

	var errs []error
	for _, record := range records {
		result, err := h.process(ctx, record, transport)
		if err != nil {
			errs = append(errs, err)
		}

		resp.Results = append(resp.Results, result)
		resp.Processed++
	}

	return resp, errors.Join(errs...)
}

func (h *Handler) process(ctx context.Context, record []byte, transport alarm.Transport) (Result, error) {
	a, err := alarm.Normalize(record, transport)
	if err != nil {
		var ignored *alarm.IgnoredTransitionError
		if errors.As(err, &ignored) {
			h.logger.InfoContext(ctx, "ignoring alarm transition",
				slog.String("alarmName", ignored.AlarmName),
				slog.String("state", string(ignored.State)),
			)
			return Result{
				AlarmName: ignored.AlarmName,
				Outcome:   OutcomeIgnored,
				Reason:    "state " + string(ignored.State),
			}, nil
		}

		h.logger.ErrorContext(ctx, "cannot normalize record",
			slog.String("error", err.Error()),
		)
		return Result{Outcome: OutcomeFailed, Reason: err.Error()}, err
	}

	pol := h.resolver.Resolve(ctx, a)
	if !pol.Enabled {
		h.logger.InfoContext(ctx, "alarm disabled by tag, skipping dispatch",
			slog.String("alarmName", a.Name),
		)
		return Result{
			AlarmName: a.Name,
			Outcome:   OutcomeIgnored,
			Reason:    "disabled by tag",
		}, nil
	}

	samples := h.sampler.Recent(ctx, a)
	payload := webhook.NewPayload(a, pol, samples, h.cfg)

	delivery, err := h.sender.Send(ctx, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "cannot deliver payload",
			slog.String("alarmName", a.Name),
			slog.String("outcome", string(OutcomeFailed)),
			slog.Any("payload", payload),
			slog.String("error", err.Error()),
		)
		return Result{
			AlarmName:   a.Name,
			Outcome:     OutcomeFailed,
			Priority:    pol.Priority,
			ServiceName: pol.ServiceName,
			Reason:      err.Error(),
		}, err
	}

	outcome := OutcomeSent
	if delivery.DryRun {
		outcome = OutcomeDryRun
	}

	h.logger.InfoContext(ctx, "payload dispatched",
		slog.String("alarmName", a.Name),
		slog.String("outcome", string(outcome)),
		slog.String("priority", string(pol.Priority)),
		slog.String("serviceName", pol.ServiceName),
		slog.Any("payload", payload),
	)

	return Result{
		AlarmName:   a.Name,
		Outcome:     outcome,
		Priority:    pol.Priority,
		ServiceName: pol.ServiceName,
	}, nil
}
