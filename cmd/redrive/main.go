// redrive replays alarm events parked on the webhook dead-letter queue.
//
// Usage:
//
//	redrive --queue-url https://sqs.eu-west-1.amazonaws.com/123456789012/webhook-dlq
//	redrive --queue-url ... --topic-arn arn:aws:sns:eu-west-1:123456789012:cloudwatch-alarms --limit 50
//	redrive --queue-url ... --dry-run
package main

import (
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/redrive"
)

var opts redrive.Options

func main() {
	cmd := &cobra.Command{
		Use:   "redrive",
		Short: "Replay dead-lettered alarm events onto their original transport",
		Long: `redrive receives alarm events from the dead-letter queue and publishes
each one back onto the transport it arrived on: state change events go to
EventBridge, legacy notifications go to SNS.

Messages are deleted from the queue only after a successful replay, so an
interrupted run can simply be repeated.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().StringVar(&opts.QueueURL, "queue-url", "", "Dead-letter queue URL (required)")
	cmd.Flags().StringVar(&opts.TopicARN, "topic-arn", "", "SNS topic to replay legacy notifications to")
	cmd.Flags().StringVar(&opts.EventBus, "event-bus", "default", "EventBridge bus to replay state change events to")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "Maximum number of messages to replay")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Decode and log without replaying or deleting")
	cmd.MarkFlagRequired("queue-url")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := cmd.Context()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("cannot load aws config: %w", err)
	}

	engine := redrive.NewEngine(
		sqs.NewFromConfig(awsCfg),
		sns.NewFromConfig(awsCfg),
		eventbridge.NewFromConfig(awsCfg),
		opts,
		logger,
	)

	summary, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("received %d, replayed %d, skipped %d\n",
		summary.Received, summary.Replayed, summary.Skipped)

	return nil
}
