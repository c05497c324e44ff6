package repository

import "errors"

// Sentinel kinds for catalogue errors.
var (
	ErrNotFound     = errors.New("event not found")
	ErrInvalidEvent = errors.New("invalid event")
)
