package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrDuplicateDate is a violation of the one-booking-per-user-per-day index.
	ErrDuplicateDate = errors.New("user already has a booking on this date")

	ErrDuplicateID = errors.New("booking id already in use")

	ErrOfficeNotFound = errors.New("office not found")

	ErrUserNotFound = errors.New("user not found")
)

// Messages shown to callers.
const (
	MsgNotFound       = "this booking does not exist"
	MsgOneOfficeADay  = "you can't book onto more than 1 office a day"
	MsgOfficeNotFound = "office does not exist"
)
