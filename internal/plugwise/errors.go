package plugwise

import "errors"

// Domain-specific errors for codec operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedField is returned when a hex field has the wrong length or
	// contains non-hex characters.
	ErrMalformedField = errors.New("plugwise: malformed field")

	// ErrMalformedAddress is returned when a MAC address string is not 16 hex digits.
	ErrMalformedAddress = errors.New("plugwise: malformed address")

	// ErrInvalidInterval is returned when an energy conversion is given a
	// non-positive or missing interval.
	ErrInvalidInterval = errors.New("plugwise: invalid interval")

	// ErrOutOfRange is returned when a value cannot be represented in the
	// target fixed-width field.
	ErrOutOfRange = errors.New("plugwise: value out of range")
)
