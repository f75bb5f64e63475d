// Package metrics fetches recent datapoints for the metric behind an alarm.
package metrics

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/devops-agent-webhook/internal/metrics")

const (
	sampleWindow  = time.Hour
	maxSamples    = 10
	defaultPeriod = 300

	lookupTimeout = 5 * time.Second
)

// Sample is one observed datapoint of the alarmed metric.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Sampler fetches recent datapoints for a canonical alarm.
type Sampler interface {
	Recent(ctx context.Context, a *alarm.Alarm) []Sample
}

// CloudWatchAPI defines the CloudWatch operations required for sampling.
type CloudWatchAPI interface {
	GetMetricData(
		ctx context.Context,
		input *cloudwatch.GetMetricDataInput,
		optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// MetricSampler implements Sampler over GetMetricData. Sampling is
// advisory: failures degrade the outbound payload, never the dispatch.
type MetricSampler struct {
	cw     CloudWatchAPI
	logger *slog.Logger
}

func NewMetricSampler(cw CloudWatchAPI, logger *slog.Logger) *MetricSampler {
	return &MetricSampler{cw: cw, logger: logger}
}

// Recent returns up to ten datapoints from the last hour, newest first.
// Alarms without a materialized metric yield none.
func (s *MetricSampler) Recent(ctx context.Context, a *alarm.Alarm) []Sample {
	if a.Namespace == "" || a.MetricName == "" || a.Statistic == "" {
		return nil
	}
	// Percentile statistics need ExtendedStatistic queries, which the
	// payload can live without.
	if strings.HasPrefix(a.Statistic, "p") {
		return nil
	}

	ctx, span := tracer.Start(ctx, "metrics.recent")
	defer span.End()

	span.SetAttributes(
		attribute.String("metric.namespace", a.Namespace),
		attribute.String("metric.name", a.MetricName),
	)

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	period := a.Period
	if period <= 0 {
		period = defaultPeriod
	}

	dimensions := make([]types.Dimension, 0, len(a.Dimensions))
	for name, value := range a.Dimensions {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}

	endTime := time.Now()
	out, err := s.cw.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
		StartTime: aws.Time(endTime.Add(-sampleWindow)),
		EndTime:   aws.Time(endTime),
		ScanBy:    types.ScanByTimestampDescending,
		MetricDataQueries: []types.MetricDataQuery{
			{
				Id: aws.String("alarmed"),
				MetricStat: &types.MetricStat{
					Metric: &types.Metric{
						Namespace:  aws.String(a.Namespace),
						MetricName: aws.String(a.MetricName),
						Dimensions: dimensions,
					},
					Period: aws.Int32(period),
					Stat:   aws.String(a.Statistic),
				},
				ReturnData: aws.Bool(true),
			},
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "cannot fetch recent datapoints, continuing without",
			slog.String("alarmName", a.Name),
			slog.String("error", err.Error()),
		)
		return nil
	}

	var samples []Sample
	for _, result := range out.MetricDataResults {
		for i := range result.Values {
			if len(samples) == maxSamples {
				return samples
			}
			samples = append(samples, Sample{
				Timestamp: result.Timestamps[i],
				Value:     result.Values[i],
			})
		}
	}

	span.SetAttributes(attribute.Int("metric.samples", len(samples)))

	return samples
}
