package mobility

import "errors"

// Sentinel kinds for mobility errors.
var (
	ErrInvalidWindow = errors.New("invalid bucket window")
)
