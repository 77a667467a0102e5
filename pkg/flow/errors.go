package flow

import "errors"

var (
	// ErrInvalidField is returned when an update names a key the current schema does not offer.
	ErrInvalidField = errors.New("field not offered by current schema")
	// ErrStale is returned when an update was computed against an older schema version.
	ErrStale = errors.New("schema version is stale")
	// ErrCompleted is returned when a completed flow is used again.
	ErrCompleted = errors.New("flow already completed")
)
