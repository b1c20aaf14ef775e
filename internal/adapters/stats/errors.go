package stats

import "errors"

// Sentinel kinds for statistics source errors.
var (
	ErrNotConnected = errors.New("statistics store not connected")
)
