package model

import "time"

const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
	EventOfficeDeleted  = "office.deleted"
	EventUserDeleted    = "user.deleted"
)

// BookingEvent is published after a committed change that affects bookings.
type BookingEvent struct {
	Type             string    `json:"type"`
	BookingID        string    `json:"booking_id,omitempty"`
	OfficeID         string    `json:"office_id,omitempty"`
	UserID           string    `json:"user_id,omitempty"`
	Date             string    `json:"date,omitempty"`
	PreviousOfficeID string    `json:"previous_office_id,omitempty"`
	PreviousDate     string    `json:"previous_date,omitempty"`
	CascadedBookings int64     `json:"cascaded_bookings,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Key routes all events of one entity to the same partition.
func (e BookingEvent) Key() string {
	switch {
	case e.BookingID != "":
		return e.BookingID
	case e.OfficeID != "":
		return e.OfficeID
	default:
		return e.UserID
	}
}

type Activity struct {
	EventID          string    `json:"event_id" bson:"_id"`
	Type             string    `json:"type" bson:"type"`
	BookingID        string    `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	OfficeID         string    `json:"office_id,omitempty" bson:"office_id,omitempty"`
	UserID           string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Date             string    `json:"date,omitempty" bson:"date,omitempty"`
	PreviousOfficeID string    `json:"previous_office_id,omitempty" bson:"previous_office_id,omitempty"`
	PreviousDate     string    `json:"previous_date,omitempty" bson:"previous_date,omitempty"`
	CascadedBookings int64     `json:"cascaded_bookings,omitempty" bson:"cascaded_bookings,omitempty"`
	Source           string    `json:"source,omitempty" bson:"source,omitempty"`
	OccurredAt       time.Time `json:"occurred_at" bson:"occurred_at"`
	RecordedAt       time.Time `json:"recorded_at" bson:"recorded_at"`
}
