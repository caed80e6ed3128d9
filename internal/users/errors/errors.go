package errors

import "errors"

var (
	ErrNotFound        = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
	ErrSessionNotFound = errors.New("session not found")
)

const (
	MsgInvalidCredentials = "invalid credentials"
	MsgUsernameTaken      = "a user with that username already exists"
	MsgEmailTaken         = "a user with that email already exists"
)
