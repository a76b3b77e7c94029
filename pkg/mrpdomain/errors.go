package mrpdomain

import "errors"

// Errors returned by configuration validation across the MRP stack.
// These represent fatal configuration/logic errors (spec Section 7):
// a node that hits one of these aborts rather than continuing to run.
var (
	// ErrUnknownTimingProfile is returned when a configured timing
	// profile is not one of {10, 30, 200, 500} ms.
	ErrUnknownTimingProfile = errors.New("mrpdomain: unknown timing profile")

	// ErrDuplicateRingPort is returned when primary and secondary ring
	// ports resolve to the same interface.
	ErrDuplicateRingPort = errors.New("mrpdomain: primary and secondary ring ports must differ")

	// ErrLoopbackRingPort is returned when a configured ring port is a
	// loopback interface.
	ErrLoopbackRingPort = errors.New("mrpdomain: ring port must not be loopback")
)
