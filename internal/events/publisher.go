package events

import (
	"context"
	"time"

	"deskbook/pkg/kafka"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

const (
	SchemaVersion  = "1"
	publishTimeout = 5 * time.Second
)

// Publisher announces committed changes. Implementations never fail the
// caller: the change is already durable when Publish runs.
type Publisher interface {
	Publish(ctx context.Context, event model.BookingEvent)
}

type MessageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer MessageProducer
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessageProducer, source string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.BookingEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	log := p.log.Ctx(ctx)

	msg, err := kafka.NewMessage().
		WithKey(event.Key()).
		WithEventType(event.Type).
		WithSource(p.source).
		WithSchemaVersion(SchemaVersion).
		WithCorrelationID(logger.RequestID(ctx)).
		WithTraceContext(ctx).
		WithValue(event).
		Build()
	if err != nil {
		log.Error("Failed to build event message", "event_type", event.Type, "error", err)
		return
	}

	// The request may be cancelled as soon as the response is written.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		log.Error("Failed to publish event",
			"event_type", event.Type,
			"event_id", msg.GetEventID(),
			"key", msg.Key,
			"error", err,
		)
	}
}

// NopPublisher drops events. It is used when EVENTS_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.BookingEvent) {}
