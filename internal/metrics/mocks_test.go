package metrics

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/mock"
)

type CloudWatchAPIMock struct {
	mock.Mock
}

func (m *CloudWatchAPIMock) GetMetricData(
	ctx context.Context,
	input *cloudwatch.GetMetricDataInput,
	optFns ...func(*cloudwatch.Options),
) (*cloudwatch.GetMetricDataOutput, error) {
	args := m.Called(ctx, input, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*cloudwatch.GetMetricDataOutput), args.Error(1)
}
