package kafka_middleware

import (
	"context"
	"time"

	"deskbook/pkg/kafka"
	"deskbook/pkg/logger"
)

// LoggingProducerMiddleware logs message publishing operations
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		l := log.Ctx(ctx).With(
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
		)

		l.Debug("Publishing message")

		err := next(ctx, msg)
		if err != nil {
			l.Error("Failed to publish message", "duration_ms", time.Since(start).Milliseconds(), "error", err)
			return err
		}

		l.Info("Published message", "duration_ms", time.Since(start).Milliseconds())
		return nil
	}
}

// LoggingConsumerMiddleware logs message consumption operations
func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		l := log.With(
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
		)

		l.Debug("Processing message")

		err := next(ctx, msg)
		if err != nil {
			l.Error("Failed to process message", "duration_ms", time.Since(start).Milliseconds(), "error", err)
			return err
		}

		l.Info("Processed message", "duration_ms", time.Since(start).Milliseconds())
		return nil
	}
}
