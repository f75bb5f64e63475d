// Package policy decides whether and how an alarm is dispatched, based on
// resource tags and built-in rules.
package policy

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/devops-agent-webhook/internal/policy")

const (
	tagEnabled  = "DevOpsAgentEnabled"
	tagPriority = "DevOpsAgentPriority"
	tagService  = "DevOpsAgentService"

	serviceUnknown = "Unknown"

	lookupTimeout = 5 * time.Second
)

// Policy is the resolved dispatch decision for one alarm.
type Policy struct {
	Enabled     bool
	Priority    alarm.Priority
	ServiceName string
}

// Resolver resolves the dispatch policy for a canonical alarm.
type Resolver interface {
	Resolve(ctx context.Context, a *alarm.Alarm) Policy
}

// CloudWatchAPI defines the CloudWatch operations required for tag lookup.
type CloudWatchAPI interface {
	ListTagsForResource(
		ctx context.Context,
		input *cloudwatch.ListTagsForResourceInput,
		optFns ...func(*cloudwatch.Options)) (*cloudwatch.ListTagsForResourceOutput, error)
}

// TagResolver implements Resolver against CloudWatch alarm tags. Tag lookup
// is advisory: when it fails, resolution proceeds on defaults so a tagging
// or IAM problem never drops an incident.
type TagResolver struct {
	cw              CloudWatchAPI
	defaultPriority alarm.Priority
	logger          *slog.Logger
}

func NewTagResolver(cw CloudWatchAPI, defaultPriority alarm.Priority, logger *slog.Logger) *TagResolver {
	return &TagResolver{
		cw:              cw,
		defaultPriority: defaultPriority,
		logger:          logger,
	}
}

// Resolve determines enablement, priority, and service name for the alarm.
// Identical alarms always resolve to the same policy.
func (r *TagResolver) Resolve(ctx context.Context, a *alarm.Alarm) Policy {
	ctx, span := tracer.Start(ctx, "policy.resolve")
	defer span.End()

	span.SetAttributes(attribute.String("alarm.name", a.Name))

	tags := r.lookupTags(ctx, a)

	p := Policy{
		Enabled:     !strings.EqualFold(tags[tagEnabled], "false"),
		Priority:    r.resolvePriority(ctx, a, tags),
		ServiceName: resolveServiceName(a, tags),
	}

	span.SetAttributes(
		attribute.Bool("policy.enabled", p.Enabled),
		attribute.String("policy.priority", string(p.Priority)),
		attribute.String("policy.service_name", p.ServiceName),
	)

	return p
}

func (r *TagResolver) lookupTags(ctx context.Context, a *alarm.Alarm) map[string]string {
	if a.ARN == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	out, err := r.cw.ListTagsForResource(ctx, &cloudwatch.ListTagsForResourceInput{
		ResourceARN: aws.String(a.ARN),
	})
	if err != nil {
		r.logger.WarnContext(ctx, "cannot list alarm tags, resolving on defaults",
			slog.String("alarmName", a.Name),
			slog.String("error", err.Error()),
		)
		return nil
	}

	tags := make(map[string]string, len(out.Tags))
	for _, tag := range out.Tags {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return tags
}

func (r *TagResolver) resolvePriority(ctx context.Context, a *alarm.Alarm, tags map[string]string) alarm.Priority {
	if value, ok := tags[tagPriority]; ok {
		p, err := alarm.ParsePriority(value)
		if err == nil {
			return p
		}
		r.logger.WarnContext(ctx, "ignoring unrecognized priority tag",
			slog.String("alarmName", a.Name),
			slog.String("value", value),
		)
	}

	if p, ok := matchPriorityRule(a.Namespace, a.MetricName); ok {
		return p
	}

	return r.defaultPriority
}
