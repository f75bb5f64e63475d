package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/config"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/dispatch"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/metrics"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/policy"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/secrets"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/telemetry"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/webhook"
)

func main() {
	startTime := time.Now()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	logger.Info("starting devops agent webhook")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("cannot load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("cannot load aws config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	creds, err := secrets.Load(ctx, secretsmanager.NewFromConfig(awsCfg), cfg.SecretARN)
	if err != nil {
		logger.Error("cannot load webhook credentials", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cwClient := cloudwatch.NewFromConfig(awsCfg)
	resolver := policy.NewTagResolver(cwClient, cfg.DefaultPriority, logger)
	sampler := metrics.NewMetricSampler(cwClient, logger)

	sender, err := webhook.NewHTTPSender(creds.URL, []byte(creds.Secret), cfg.DryRun, logger)
	if err != nil {
		logger.Error("cannot create sender", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tp, err := telemetry.NewTracerProvider(ctx, os.Getenv("AWS_LAMBDA_FUNCTION_NAME"))
	if err != nil {
		logger.Error("cannot initialize tracer provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("cannot shutdown tracer provider", slog.String("error", err.Error()))
		}
	}()

	logger.Info(
		"started devops agent webhook",
		slog.String("region", cfg.AWSRegion),
		slog.Bool("dryRun", cfg.DryRun),
		slog.Float64("initDurationSec", time.Since(startTime).Seconds()),
	)

	h := dispatch.NewHandler(resolver, sampler, sender, cfg, logger)
	lambda.Start(
		otellambda.InstrumentHandler(
			h.Handle,
			otellambda.WithTracerProvider(tp),
			otellambda.WithFlusher(tp)),
	)
}
