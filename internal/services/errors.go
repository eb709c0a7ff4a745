package services

import "errors"

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
	ErrNoData          = errors.New("no readings uploaded")
)
