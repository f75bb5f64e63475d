package secrets

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/mock"
)

type SecretsManagerAPIMock struct {
	mock.Mock
}

func (m *SecretsManagerAPIMock) GetSecretValue(
	ctx context.Context,
	input *secretsmanager.GetSecretValueInput,
	optFns ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	args := m.Called(ctx, input, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*secretsmanager.GetSecretValueOutput), args.Error(1)
}
