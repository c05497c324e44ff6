package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("backpressure")
	ErrInvalidEvent = errors.New("invalid event")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidQuery = errors.New("invalid query")
)
