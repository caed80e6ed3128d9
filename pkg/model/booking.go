package model

import "time"

// DateLayout is the wire and storage format of a booking date. Dates carry no
// time component and compare correctly as strings.
const DateLayout = "2006-01-02"

type Booking struct {
	ID        string    `json:"id" bson:"_id" validate:"required,uuid"`
	OfficeID  string    `json:"office_id" bson:"office_id" validate:"required,uuid"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required,uuid"`
	Date      string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// BookingInput is the body of create and upsert calls. ID is only honoured by upsert.
type BookingInput struct {
	ID       *string `json:"id,omitempty" validate:"omitempty,uuid"`
	OfficeID string  `json:"office_id" validate:"required,uuid"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
}

type BookingUpdate struct {
	OfficeID *string `json:"office_id,omitempty" validate:"omitempty,uuid"`
	Date     *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (u *BookingUpdate) IsEmpty() bool {
	return u.OfficeID == nil && u.Date == nil
}

type BookingFilter struct {
	Squad    string `json:"squad" validate:"omitempty,oneof=lunar"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	OfficeID string `json:"office_id" validate:"omitempty,uuid"`
	Limit    int    `json:"limit" validate:"omitempty,min=1"`
	Cursor   string `json:"cursor"`
}

// BookingPage is one page of a keyset-paginated listing.
type BookingPage struct {
	Bookings   []*Booking
	NextCursor string
}

// BookingCursor is the position after the last booking of a page. Bookings are
// listed in (date, id) order.
type BookingCursor struct {
	Date string `json:"d"`
	ID   string `json:"i"`
}
