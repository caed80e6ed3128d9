package handler

import (
	"context"
	"errors"
	"time"

	"deskbook/internal/activity/repository"
	"deskbook/pkg/kafka"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
	"deskbook/pkg/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("deskbook/activity")

var errMissingEventID = errors.New("message has no event id")

type ActivityHandler struct {
	repo repository.ActivityRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewActivityHandler(repo repository.ActivityRepository, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Handle appends one activity per booking event. Redelivered events are
// recognised by their event id and acknowledged without a second write.
func (h *ActivityHandler) Handle(ctx context.Context, msg kafka.Message) (err error) {
	ctx, span := tracer.Start(msg.TraceContext(ctx), "activity.Handle")
	defer func() { telemetry.EndSpan(span, err) }()

	eventID := msg.GetEventID()
	if eventID == "" {
		return kafka.NewPermanentError("invalid booking event", errMissingEventID)
	}
	span.SetAttributes(attribute.String("event.id", eventID))

	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("invalid booking event", err).WithDetail("event_id", eventID)
	}
	if event.Type == "" {
		return kafka.NewPermanentError("invalid booking event", errors.New("event type is empty")).WithDetail("event_id", eventID)
	}

	activity := &model.Activity{
		EventID:          eventID,
		Type:             event.Type,
		BookingID:        event.BookingID,
		OfficeID:         event.OfficeID,
		UserID:           event.UserID,
		Date:             event.Date,
		PreviousOfficeID: event.PreviousOfficeID,
		PreviousDate:     event.PreviousDate,
		CascadedBookings: event.CascadedBookings,
		Source:           msg.GetSource(),
		OccurredAt:       event.OccurredAt,
		RecordedAt:       h.now().UTC().Truncate(time.Millisecond),
	}

	inserted, err := h.repo.Record(ctx, activity)
	if err != nil {
		return kafka.NewTransientError("failed to record activity", err)
	}

	log := h.log.Ctx(ctx).With("event_id", eventID, "type", event.Type, "correlation_id", msg.GetCorrelationID())
	if !inserted {
		log.Debug("Activity already recorded")
		return nil
	}
	log.Info("Activity recorded")
	return nil
}
