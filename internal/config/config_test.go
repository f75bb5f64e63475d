package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
)

const testSecretARN = "arn:aws:secretsmanager:us-east-1:123456789012:secret:devops-agent-webhook-Ab12Cd"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("SECRET_ARN", testSecretARN)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, testSecretARN, cfg.SecretARN)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, alarm.PriorityMedium, cfg.DefaultPriority)
	assert.Empty(t, cfg.DeploymentName)
	assert.Empty(t, cfg.DeploymentDescription)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_FullEnvironment(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("SECRET_ARN", testSecretARN)
	t.Setenv("DRY_RUN", "true")
	t.Setenv("DEFAULT_PRIORITY", "low")
	t.Setenv("DEPLOYMENT_NAME", "payments-prod")
	t.Setenv("DEPLOYMENT_DESCRIPTION", "Payments production stack")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, alarm.PriorityLow, cfg.DefaultPriority)
	assert.Equal(t, "payments-prod", cfg.DeploymentName)
	assert.Equal(t, "Payments production stack", cfg.DeploymentDescription)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_MissingAWSRegion(t *testing.T) {
	t.Setenv("SECRET_ARN", testSecretARN)

	cfg, err := Load()
	require.Error(t, err)
	require.Nil(t, cfg)
	assert.Contains(t, err.Error(), "AWS_REGION")
}

func TestLoad_MissingSecretARN(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")

	cfg, err := Load()
	require.Error(t, err)
	require.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SECRET_ARN")
}

func TestLoad_InvalidDefaultPriority(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("SECRET_ARN", testSecretARN)
	t.Setenv("DEFAULT_PRIORITY", "urgent")

	cfg, err := Load()
	require.Error(t, err)
	require.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid default priority")
}

func TestLoad_InvalidDryRun(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("SECRET_ARN", testSecretARN)
	t.Setenv("DRY_RUN", "definitely")

	cfg, err := Load()
	require.Error(t, err)
	require.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DRY_RUN")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("SECRET_ARN", testSecretARN)
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load()
	require.Error(t, err)
	require.Nil(t, cfg)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}
