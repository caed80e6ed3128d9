package errors

import "errors"

var (
	ErrNotFound = errors.New("office not found")
)
