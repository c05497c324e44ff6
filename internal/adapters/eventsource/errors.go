package eventsource

import "errors"

// Sentinel kinds for source errors.
var (
	ErrSourceLoad = errors.New("event source load failed")
	ErrFormat     = errors.New("unrecognised feed format")
)
