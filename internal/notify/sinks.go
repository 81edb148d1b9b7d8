// internal/notify/sinks.go
package notify

import (
	"context"
	"log/slog"
)

// Publisher is the slice of pkg/rabbitmq.Producer the AMQP sink needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// AMQPSink publishes events as JSON, routed by "<prefix>.<kind>".
type AMQPSink struct {
	publisher Publisher
	prefix    string
}

// NewAMQPSink creates an AMQPSink.
func NewAMQPSink(publisher Publisher, prefix string) *AMQPSink {
	if prefix == "" {
		prefix = "ledger"
	}
	return &AMQPSink{publisher: publisher, prefix: prefix}
}

// Send implements Sink.
func (s *AMQPSink) Send(ctx context.Context, event Event) error {
	return s.publisher.Publish(ctx, s.prefix+"."+string(event.Kind), event)
}

// LogSink writes events to the structured log. Used when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send implements Sink.
func (s *LogSink) Send(_ context.Context, event Event) error {
	s.logger.Info("Balance notification",
		"recipient_id", event.RecipientID,
		"recipient_kind", event.RecipientKind,
		"kind", event.Kind,
		"amount", event.Amount.StringFixed(2),
		"resulting_balance", event.ResultingBalance.StringFixed(2),
		"bucket", event.Bucket,
		"correlation_id", event.CorrelationID,
	)
	return nil
}
