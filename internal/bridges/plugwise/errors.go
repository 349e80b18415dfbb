package plugwise

import "errors"

// Domain errors for the Plugwise bridge package.
var (
	// ErrCalibrationMissing is returned when a pulse counter arrives for a
	// node whose power calibration is not yet known.
	ErrCalibrationMissing = errors.New("plugwise bridge: calibration missing")

	// ErrInvalidTopic is returned for messages outside the bridge's topic scheme.
	ErrInvalidTopic = errors.New("plugwise bridge: invalid topic")

	// ErrInvalidPayload is returned when a message body is not valid JSON
	// for its topic.
	ErrInvalidPayload = errors.New("plugwise bridge: invalid payload")

	// ErrInvalidCommand is returned for unknown command names.
	ErrInvalidCommand = errors.New("plugwise bridge: invalid command")

	// ErrInvalidParameters is returned when command parameters are missing
	// or cannot be encoded.
	ErrInvalidParameters = errors.New("plugwise bridge: invalid parameters")

	// ErrNodeNotFound is returned by repositories for unknown addresses.
	ErrNodeNotFound = errors.New("plugwise bridge: node not found")
)
