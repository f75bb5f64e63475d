package dispatch

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/metrics"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/policy"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/webhook"
)

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) Resolve(ctx context.Context, a *alarm.Alarm) policy.Policy {
	args := m.Called(ctx, a)

	return args.Get(0).(policy.Policy)
}

type SamplerMock struct {
	mock.Mock
}

func (m *SamplerMock) Recent(ctx context.Context, a *alarm.Alarm) []metrics.Sample {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]metrics.Sample)
}

type SenderMock struct {
	mock.Mock
}

func (m *SenderMock) Send(ctx context.Context, payload *webhook.Payload) (*webhook.Delivery, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*webhook.Delivery), args.Error(1)
}
