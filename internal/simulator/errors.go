package simulator

import "errors"

// Global error declarations. Every error returned by this package wraps one
// of these three, so callers can classify failures with errors.Is.
var (
	// ErrConfiguration marks malformed inputs caught at construction time:
	// bad price table shape, non-positive AUM, non-monotonic time axis.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDomain marks operations referencing an asset/time combination
	// outside its tradable range.
	ErrDomain = errors.New("outside tradable range")

	// ErrUsage marks protocol violations: building before iterating,
	// writing before the first step, re-iterating an exhausted builder.
	ErrUsage = errors.New("protocol violation")
)
