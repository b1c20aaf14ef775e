package draft

import "errors"

// Sentinel kinds for reconciliation errors. These allow errors.Is from callers.
var (
	// ErrMalformedSnapshot marks a snapshot missing the fields needed to
	// reconcile. The previous state is retained and the tick is skipped.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)
