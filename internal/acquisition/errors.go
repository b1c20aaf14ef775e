package acquisition

import "errors"

// Sentinel errors for the refresh pipeline.
var (
	// ErrQueueFull means a job could not be enqueued within the queue bound.
	ErrQueueFull = errors.New("acquisition: job queue full")
)
