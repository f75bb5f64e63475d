package config

import (
	"fmt"
	"log/slog"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/utils/env"
)

// Config is the deployment context, loaded once at cold start and read-only
// afterwards. Credential rotation takes effect on the next cold start.
type Config struct {
	AWSRegion string
	SecretARN string

	DryRun          bool
	DefaultPriority alarm.Priority

	DeploymentName        string
	DeploymentDescription string

	LogLevel slog.Level
}

func Load() (*Config, error) {
	cfg := &Config{}

	region, err := env.GetRequired("AWS_REGION", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.AWSRegion = region

	secretARN, err := env.GetRequired("SECRET_ARN", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.SecretARN = secretARN

	priority := env.Get("DEFAULT_PRIORITY", string(alarm.PriorityMedium), env.ParseNonEmptyString)

	parsed, err := alarm.ParsePriority(priority)
	if err != nil {
		return nil, fmt.Errorf("invalid default priority: %s", priority)
	}
	cfg.DefaultPriority = parsed

	// A set but unparseable value is a startup error, never a silent default.
	dryRun, err := env.GetOptional("DRY_RUN", false, env.ParseBool)
	if err != nil {
		return nil, err
	}
	cfg.DryRun = dryRun

	logLevel, err := env.GetOptional("LOG_LEVEL", slog.LevelInfo, env.ParseLogLevel)
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = logLevel

	cfg.DeploymentName = env.Get("DEPLOYMENT_NAME", "", env.ParseString)
	cfg.DeploymentDescription = env.Get("DEPLOYMENT_DESCRIPTION", "", env.ParseString)

	return cfg, nil
}
