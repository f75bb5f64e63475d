// Package redrive drains alarm events from a dead-letter queue and replays
// them onto the transport they originally arrived on.
package redrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
)

const (
	maxReceiveBatch    = 10
	receiveWaitSeconds = 1

	replaySource          = "devops-agent.redrive"
	stateChangeDetailType = "CloudWatch Alarm State Change"
)

type SQSAPI interface {
	ReceiveMessage(
		ctx context.Context,
		input *sqs.ReceiveMessageInput,
		optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(
		ctx context.Context,
		input *sqs.DeleteMessageInput,
		optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SNSAPI interface {
	Publish(
		ctx context.Context,
		input *sns.PublishInput,
		optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type EventBridgeAPI interface {
	PutEvents(
		ctx context.Context,
		input *eventbridge.PutEventsInput,
		optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Options controls one redrive run.
type Options struct {
	QueueURL string
	TopicARN string
	EventBus string
	Limit    int
	DryRun   bool
}

// Summary counts what one run did. Skipped messages stay on the queue and
// reappear after the visibility timeout.
type Summary struct {
	Received int
	Replayed int
	Skipped  int
}

type Engine struct {
	sqs    SQSAPI
	sns    SNSAPI
	events EventBridgeAPI
	opts   Options
	logger *slog.Logger
}

func NewEngine(sqsClient SQSAPI, snsClient SNSAPI, eventsClient EventBridgeAPI, opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		sqs:    sqsClient,
		sns:    snsClient,
		events: eventsClient,
		opts:   opts,
		logger: logger,
	}
}

// Run receives up to Limit messages and replays each one. Messages are
// deleted only after a successful replay, so a crashed run loses nothing.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	if e.opts.QueueURL == "" {
		return nil, errors.New("queue URL is required")
	}

	summary := &Summary{}

	for summary.Received < e.opts.Limit {
		batch := e.opts.Limit - summary.Received
		if batch > maxReceiveBatch {
			batch = maxReceiveBatch
		}

		out, err := e.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(e.opts.QueueURL),
			MaxNumberOfMessages: int32(batch),
			WaitTimeSeconds:     receiveWaitSeconds,
		})
		if err != nil {
			return summary, fmt.Errorf("cannot receive messages: %w", err)
		}

		if len(out.Messages) == 0 {
			break
		}

		for _, msg := range out.Messages {
			summary.Received++

			if err := e.replay(ctx, []byte(aws.ToString(msg.Body))); err != nil {
				e.logger.WarnContext(ctx, "cannot replay message, leaving on queue",
					slog.String("messageId", aws.ToString(msg.MessageId)),
					slog.String("error", err.Error()),
				)
				summary.Skipped++

				continue
			}

			summary.Replayed++

			if e.opts.DryRun {
				continue
			}

			_, err := e.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(e.opts.QueueURL),
				ReceiptHandle: msg.ReceiptHandle,
			})
			if err != nil {
				e.logger.WarnContext(ctx, "cannot delete replayed message",
					slog.String("messageId", aws.ToString(msg.MessageId)),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return summary, nil
}

func (e *Engine) replay(ctx context.Context, body []byte) error {
	records, transport, err := alarm.Decode(body)
	if err != nil {
		return err
	}

	if e.opts.DryRun {
		e.logger.InfoContext(ctx, "dry run enabled, skipping replay",
			slog.String("transport", string(transport)),
			slog.Int("records", len(records)),
		)

		return nil
	}

	switch transport {
	case alarm.TransportSNS:
		return e.replayNotifications(ctx, records)
	case alarm.TransportEventBridge:
		return e.replayStateChange(ctx, body)
	default:
		return fmt.Errorf("unsupported transport %s", transport)
	}
}

func (e *Engine) replayNotifications(ctx context.Context, records [][]byte) error {
	if e.opts.TopicARN == "" {
		return errors.New("no topic ARN configured for notification replay")
	}

	for _, record := range records {
		out, err := e.sns.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(e.opts.TopicARN),
			Message:  aws.String(string(record)),
		})
		if err != nil {
			return fmt.Errorf("cannot publish notification: %w", err)
		}

		e.logger.InfoContext(ctx, "notification replayed",
			slog.String("messageId", aws.ToString(out.MessageId)),
		)
	}

	return nil
}

func (e *Engine) replayStateChange(ctx context.Context, body []byte) error {
	var event events.CloudWatchEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("cannot parse state change event: %w", err)
	}

	detailType := event.DetailType
	if detailType == "" {
		detailType = stateChangeDetailType
	}

	out, err := e.events.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{
			{
				EventBusName: aws.String(e.opts.EventBus),
				Source:       aws.String(replaySource),
				DetailType:   aws.String(detailType),
				Detail:       aws.String(string(event.Detail)),
				Resources:    event.Resources,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("cannot put event: %w", err)
	}

	if out.FailedEntryCount > 0 {
		entry := out.Entries[0]
		return fmt.Errorf("event rejected with code %s: %s",
			aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
	}

	e.logger.InfoContext(ctx, "state change replayed",
		slog.String("eventId", aws.ToString(out.Entries[0].EventId)),
	)

	return nil
}
