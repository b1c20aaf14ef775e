package lcu

import "errors"

// Sentinel errors for the session boundary.
var (
	// ErrClientNotFound means no lockfile with usable credentials exists.
	ErrClientNotFound = errors.New("lcu: client not found")

	// ErrNotInSession means the draft session endpoint returned 404, which
	// is the normal answer outside champion select.
	ErrNotInSession = errors.New("lcu: no active draft session")

	// ErrNoPendingAction means the local actor has no incomplete action to
	// attach a selection to.
	ErrNoPendingAction = errors.New("lcu: no pending action for local actor")
)
