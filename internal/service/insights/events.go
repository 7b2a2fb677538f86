package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// EventPublisher announces the completion of an insight run.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, report *RunReport) error
}

// NopPublisher is used when no event bus is configured.
type NopPublisher struct{}

func (NopPublisher) PublishRunCompleted(ctx context.Context, report *RunReport) error {
	return nil
}

// EventBridgeAPI is the subset of the EventBridge client the publisher uses.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher publishes run-completed events onto an event bus.
type EventBridgePublisher struct {
	client  EventBridgeAPI
	busName string
	logger  *zap.Logger
}

// NewEventBridgePublisher creates a publisher for the given bus.
func NewEventBridgePublisher(client EventBridgeAPI, busName string, logger *zap.Logger) *EventBridgePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBridgePublisher{client: client, busName: busName, logger: logger}
}

// PublishRunCompleted emits one PricingInsightRunCompleted event.
func (p *EventBridgePublisher) PublishRunCompleted(ctx context.Context, report *RunReport) error {
	detail, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	_, err = p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String("resale-pricing.insights"),
				DetailType:   aws.String("PricingInsightRunCompleted"),
				Detail:       aws.String(string(detail)),
				Time:         aws.Time(time.Now()),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish run-completed event: %w", err)
	}
	return nil
}
