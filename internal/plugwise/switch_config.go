package plugwise

import "fmt"

// BoundaryType selects which quantity a Sense node watches.
type BoundaryType int

// Boundary types with their protocol codes.
const (
	BoundaryTypeHumidity    BoundaryType = 0
	BoundaryTypeTemperature BoundaryType = 1
	BoundaryTypeNone        BoundaryType = 2
)

// Code returns the protocol code.
func (b BoundaryType) Code() int {
	return int(b)
}

// Hex returns the code as 2 upper-case hex digits.
func (b BoundaryType) Hex() string {
	return fmt.Sprintf("%02X", b.Code())
}

// Field returns the linear field used to encode boundary values of this type.
// BoundaryTypeNone has no field.
func (b BoundaryType) Field() (LinearField, bool) {
	switch b {
	case BoundaryTypeHumidity:
		return Humidity, true
	case BoundaryTypeTemperature:
		return Temperature, true
	default:
		return LinearField{}, false
	}
}

// String implements fmt.Stringer.
func (b BoundaryType) String() string {
	switch b {
	case BoundaryTypeHumidity:
		return "humidity"
	case BoundaryTypeTemperature:
		return "temperature"
	case BoundaryTypeNone:
		return "none"
	default:
		return fmt.Sprintf("BoundaryType(%d)", int(b))
	}
}

// BoundaryAction is the output a Sense node commands to its bound switches
// when the watched value is below the lower or above the upper boundary.
type BoundaryAction int

// Boundary actions.
const (
	BoundaryActionOffBelowOnAbove BoundaryAction = iota
	BoundaryActionOnBelowOffAbove
)

// Output states commanded by a boundary action.
const (
	actionOff = 0
	actionOn  = 1
)

// LowerAction returns the output state commanded below the lower boundary.
func (a BoundaryAction) LowerAction() int {
	if a == BoundaryActionOnBelowOffAbove {
		return actionOn
	}
	return actionOff
}

// UpperAction returns the output state commanded above the upper boundary.
func (a BoundaryAction) UpperAction() int {
	if a == BoundaryActionOnBelowOffAbove {
		return actionOff
	}
	return actionOn
}

// String implements fmt.Stringer.
func (a BoundaryAction) String() string {
	switch a {
	case BoundaryActionOffBelowOnAbove:
		return "off_below_on_above"
	case BoundaryActionOnBelowOffAbove:
		return "on_below_off_above"
	default:
		return fmt.Sprintf("BoundaryAction(%d)", int(a))
	}
}

// Sensitivity is the motion sensitivity level of a Scan node.
type Sensitivity int

// Sensitivity levels.
const (
	SensitivityHigh Sensitivity = iota
	SensitivityMedium
	SensitivityOff
)

// Code returns the protocol byte for s.
func (s Sensitivity) Code() int {
	switch s {
	case SensitivityHigh:
		return 0x14
	case SensitivityMedium:
		return 0x1E
	default:
		return 0xFF
	}
}

// Hex returns the protocol byte as 2 upper-case hex digits.
func (s Sensitivity) Hex() string {
	return fmt.Sprintf("%02X", s.Code())
}

// String implements fmt.Stringer.
func (s Sensitivity) String() string {
	switch s {
	case SensitivityHigh:
		return "high"
	case SensitivityMedium:
		return "medium"
	case SensitivityOff:
		return "off"
	default:
		return fmt.Sprintf("Sensitivity(%d)", int(s))
	}
}

// ParseSensitivity maps a configuration name ("high", "medium", "off") to a level.
// Only the fixed symbol names are accepted.
func ParseSensitivity(name string) (Sensitivity, bool) {
	switch name {
	case "high":
		return SensitivityHigh, true
	case "medium":
		return SensitivityMedium, true
	case "off":
		return SensitivityOff, true
	default:
		return SensitivityOff, false
	}
}

// ParseBoundaryAction maps a configuration name to an action.
func ParseBoundaryAction(name string) (BoundaryAction, bool) {
	switch name {
	case "off_below_on_above":
		return BoundaryActionOffBelowOnAbove, true
	case "on_below_off_above":
		return BoundaryActionOnBelowOffAbove, true
	default:
		return BoundaryActionOffBelowOnAbove, false
	}
}

// ParseBoundaryType maps a configuration name to a boundary type.
func ParseBoundaryType(name string) (BoundaryType, bool) {
	switch name {
	case "humidity":
		return BoundaryTypeHumidity, true
	case "temperature":
		return BoundaryTypeTemperature, true
	case "none":
		return BoundaryTypeNone, true
	default:
		return BoundaryTypeNone, false
	}
}
