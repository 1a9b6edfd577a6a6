package moveapi

import (
	"errors"
	"fmt"
)

// ErrNotFound means the move vanished server-side, typically because it was
// deleted concurrently. Callers react with a full refetch.
var ErrNotFound = errors.New("moveapi: move not found")

// ErrTriageUnavailable means the triage run itself failed; no partial
// result is usable.
var ErrTriageUnavailable = errors.New("moveapi: triage unavailable")

// ValidationError reports a request the schema rejected, such as an empty
// title. It identifies the offending field so it can be surfaced inline.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("moveapi: invalid %s: %s", e.Field, e.Reason)
}

// TransportError wraps a network-level failure (refused, timeout). The
// optimistic local state survives it; callers schedule a background refetch.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("moveapi: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
