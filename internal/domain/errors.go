package domain

import "errors"

var (
	ErrEmptyText          = errors.New("text must not be empty")
	ErrMissingField       = errors.New("missing required field")
	ErrTooManySubscribers = errors.New("too many subscribers")
	ErrHubStopped         = errors.New("hub stopped")
)
