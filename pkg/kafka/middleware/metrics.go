package kafka_middleware

import (
	"context"
	"time"

	"deskbook/pkg/kafka"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics records Kafka traffic through OpenTelemetry instruments.
type Metrics struct {
	published       metric.Int64Counter
	publishDuration metric.Float64Histogram
	consumed        metric.Int64Counter
	consumeDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	published, err := meter.Int64Counter("kafka.messages.published",
		metric.WithDescription("Messages handed to the broker"))
	if err != nil {
		return nil, err
	}

	publishDuration, err := meter.Float64Histogram("kafka.publish.duration",
		metric.WithDescription("Time spent publishing a message"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	consumed, err := meter.Int64Counter("kafka.messages.consumed",
		metric.WithDescription("Messages run through the consumer handler"))
	if err != nil {
		return nil, err
	}

	consumeDuration, err := meter.Float64Histogram("kafka.consume.duration",
		metric.WithDescription("Time spent handling a message"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		published:       published,
		publishDuration: publishDuration,
		consumed:        consumed,
		consumeDuration: consumeDuration,
	}, nil
}

func attributes(msg kafka.Message, err error) metric.MeasurementOption {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	return metric.WithAttributes(
		attribute.String("topic", msg.Topic),
		attribute.String("event_type", msg.GetEventType()),
		attribute.String("outcome", outcome),
	)
}

func elapsedMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// ProducerMiddleware tracks producer metrics
func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := attributes(msg, err)
		m.published.Add(ctx, 1, attrs)
		m.publishDuration.Record(ctx, elapsedMillis(start), attrs)

		return err
	}
}

// ConsumerMiddleware tracks consumer metrics
func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := attributes(msg, err)
		m.consumed.Add(ctx, 1, attrs)
		m.consumeDuration.Record(ctx, elapsedMillis(start), attrs)

		return err
	}
}
