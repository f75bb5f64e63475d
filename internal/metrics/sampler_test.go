package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
)

func setupSampler(t *testing.T) (*CloudWatchAPIMock, *MetricSampler) {
	t.Helper()

	mockCW := new(CloudWatchAPIMock)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sampler := NewMetricSampler(mockCW, logger)

	return mockCW, sampler
}

func newAlarm(mutate ...func(*alarm.Alarm)) *alarm.Alarm {
	a := &alarm.Alarm{
		Name:       "prod-orders-db-cpu",
		State:      alarm.StateAlarm,
		Namespace:  "AWS/RDS",
		MetricName: "CPUUtilization",
		Statistic:  "Average",
		Period:     300,
		Dimensions: map[string]string{"DBInstanceIdentifier": "orders-db"},
	}
	for _, fn := range mutate {
		fn(a)
	}

	return a
}

func newMetricDataOutput(values ...float64) *cloudwatch.GetMetricDataOutput {
	base := time.Date(2024, 3, 18, 16, 30, 0, 0, time.UTC)

	var result types.MetricDataResult
	for i, value := range values {
		result.Timestamps = append(result.Timestamps, base.Add(-time.Duration(i)*5*time.Minute))
		result.Values = append(result.Values, value)
	}

	return &cloudwatch.GetMetricDataOutput{
		MetricDataResults: []types.MetricDataResult{result},
	}
}

func expectGetMetricData(m *CloudWatchAPIMock, match func(input *cloudwatch.GetMetricDataInput) bool, out *cloudwatch.GetMetricDataOutput, err error) {
	m.On("GetMetricData",
		mock.MatchedBy(func(ctx context.Context) bool { return ctx != nil }),
		mock.MatchedBy(match),
		mock.AnythingOfType("[]func(*cloudwatch.Options)"),
	).Return(out, err).Once()
}

func TestRecent_ReturnsDatapoints(t *testing.T) {
	mockCW, sampler := setupSampler(t)
	expectGetMetricData(mockCW, func(input *cloudwatch.GetMetricDataInput) bool {
		if len(input.MetricDataQueries) != 1 {
			return false
		}
		stat := input.MetricDataQueries[0].MetricStat
		return aws.ToString(stat.Metric.Namespace) == "AWS/RDS" &&
			aws.ToString(stat.Metric.MetricName) == "CPUUtilization" &&
			aws.ToString(stat.Stat) == "Average" &&
			aws.ToInt32(stat.Period) == 300 &&
			input.ScanBy == types.ScanByTimestampDescending
	}, newMetricDataOutput(99.5, 97.2, 84.1), nil)

	samples := sampler.Recent(context.Background(), newAlarm())

	require.Len(t, samples, 3)
	assert.InDelta(t, 99.5, samples[0].Value, 0.001)
	assert.True(t, samples[0].Timestamp.After(samples[1].Timestamp))
	mockCW.AssertExpectations(t)
}

func TestRecent_CapsSampleCount(t *testing.T) {
	mockCW, sampler := setupSampler(t)

	values := make([]float64, 25)
	for i := range values {
		values[i] = float64(i)
	}
	expectGetMetricData(mockCW, func(input *cloudwatch.GetMetricDataInput) bool {
		return true
	}, newMetricDataOutput(values...), nil)

	samples := sampler.Recent(context.Background(), newAlarm())

	assert.Len(t, samples, 10)
	mockCW.AssertExpectations(t)
}

func TestRecent_DefaultsPeriod(t *testing.T) {
	mockCW, sampler := setupSampler(t)
	expectGetMetricData(mockCW, func(input *cloudwatch.GetMetricDataInput) bool {
		return aws.ToInt32(input.MetricDataQueries[0].MetricStat.Period) == 300
	}, newMetricDataOutput(1.0), nil)

	samples := sampler.Recent(context.Background(), newAlarm(func(a *alarm.Alarm) {
		a.Period = 0
	}))

	assert.Len(t, samples, 1)
	mockCW.AssertExpectations(t)
}

func TestRecent_QueryWindow(t *testing.T) {
	mockCW, sampler := setupSampler(t)
	expectGetMetricData(mockCW, func(input *cloudwatch.GetMetricDataInput) bool {
		window := aws.ToTime(input.EndTime).Sub(aws.ToTime(input.StartTime))
		return window == time.Hour
	}, newMetricDataOutput(), nil)

	sampler.Recent(context.Background(), newAlarm())

	mockCW.AssertExpectations(t)
}

func TestRecent_SkipsMetriclessAlarm(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *alarm.Alarm)
	}{
		{name: "no namespace", mutate: func(a *alarm.Alarm) { a.Namespace = "" }},
		{name: "no metric name", mutate: func(a *alarm.Alarm) { a.MetricName = "" }},
		{name: "no statistic", mutate: func(a *alarm.Alarm) { a.Statistic = "" }},
		{name: "percentile statistic", mutate: func(a *alarm.Alarm) { a.Statistic = "p99" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCW, sampler := setupSampler(t)

			samples := sampler.Recent(context.Background(), newAlarm(tt.mutate))

			assert.Nil(t, samples)
			mockCW.AssertNotCalled(t, "GetMetricData", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRecent_FailsOpen(t *testing.T) {
	mockCW, sampler := setupSampler(t)
	expectGetMetricData(mockCW, func(input *cloudwatch.GetMetricDataInput) bool {
		return true
	}, nil, errors.New("throttled"))

	samples := sampler.Recent(context.Background(), newAlarm())

	assert.Nil(t, samples)
	mockCW.AssertExpectations(t)
}
