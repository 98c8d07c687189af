package neighbor

import "errors"

// Domain errors for neighbor-list operations. All of them are programming
// errors surfaced immediately to the caller; nothing here is transient.
var (
	// ErrInvalidConfiguration indicates a negative cutoff or buffer radius.
	ErrInvalidConfiguration = errors.New("neighbor: cutoff or buffer radius out of range")

	// ErrOutOfRange indicates a tag at or above the particle count.
	ErrOutOfRange = errors.New("neighbor: particle tag out of range")

	// ErrExclusionListFull indicates an attempt to add a fifth exclusion.
	ErrExclusionListFull = errors.New("neighbor: exclusion slots exhausted")

	// ErrUnknownStrategy indicates an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("neighbor: unknown build strategy")
)
