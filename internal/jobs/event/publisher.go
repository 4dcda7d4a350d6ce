package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gigboard/gigboard/shared/rabbitmq"
)

// Publisher delivers lifecycle events to the external bus. Delivery is
// best-effort, at-least-once; the coordinator never rolls back a committed
// transition on publish failure.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// AMQPPublisher publishes events to the lifecycle topic exchange, keyed by
// event type.
type AMQPPublisher struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewAMQPPublisher creates a publisher on an established RabbitMQ client.
func NewAMQPPublisher(client *rabbitmq.Client, logger *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		client: client,
		logger: logger,
	}
}

// Publish marshals and sends one event. Retries with backoff are handled by
// the underlying client.
func (p *AMQPPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.PublishWithRetry(ctx, evt.Type, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", evt.Type, err)
	}

	p.logger.Debug("Lifecycle event published",
		slog.String("event_type", evt.Type),
		slog.String("job_id", evt.JobID),
	)

	return nil
}
