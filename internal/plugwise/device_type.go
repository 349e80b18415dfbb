package plugwise

import "strings"

// DeviceType classifies a node by hardware kind.
//
// The two capability flags are independent: a node can be a relay, a
// sleeping end device, or neither (the Stick).
type DeviceType int

// Known device types.
const (
	DeviceTypeUnknown DeviceType = iota
	DeviceTypeCircle
	DeviceTypeCirclePlus
	DeviceTypeScan
	DeviceTypeSense
	DeviceTypeStealth
	DeviceTypeStick
	DeviceTypeSwitch
)

// Hardware type bytes reported in the device information response.
const (
	hwTypeStick      = 0
	hwTypeCirclePlus = 1
	hwTypeCircle     = 2
	hwTypeSwitch     = 3
	hwTypeSense      = 5
	hwTypeScan       = 6
	hwTypeStealth    = 9
)

// DeviceTypeFromCode maps the hardware type byte of a device information
// response to a DeviceType.
//
// Returns DeviceTypeUnknown and false for codes not in the fixed set.
func DeviceTypeFromCode(code int) (DeviceType, bool) {
	switch code {
	case hwTypeStick:
		return DeviceTypeStick, true
	case hwTypeCirclePlus:
		return DeviceTypeCirclePlus, true
	case hwTypeCircle:
		return DeviceTypeCircle, true
	case hwTypeSwitch:
		return DeviceTypeSwitch, true
	case hwTypeSense:
		return DeviceTypeSense, true
	case hwTypeScan:
		return DeviceTypeScan, true
	case hwTypeStealth:
		return DeviceTypeStealth, true
	default:
		return DeviceTypeUnknown, false
	}
}

// Label returns the human-readable product name.
func (d DeviceType) Label() string {
	switch d {
	case DeviceTypeCircle:
		return "Circle"
	case DeviceTypeCirclePlus:
		return "Circle+"
	case DeviceTypeScan:
		return "Scan"
	case DeviceTypeSense:
		return "Sense"
	case DeviceTypeStealth:
		return "Stealth"
	case DeviceTypeStick:
		return "Stick"
	case DeviceTypeSwitch:
		return "Switch"
	default:
		return "Unknown"
	}
}

// String implements fmt.Stringer.
func (d DeviceType) String() string {
	return d.Label()
}

// IsRelayDevice reports whether the node switches a load and meters it.
// Relay devices are always reachable and can be polled.
func (d DeviceType) IsRelayDevice() bool {
	switch d {
	case DeviceTypeCircle, DeviceTypeCirclePlus, DeviceTypeStealth:
		return true
	default:
		return false
	}
}

// IsSleepingEndDevice reports whether the node is battery powered and only
// reachable briefly after it wakes.
func (d DeviceType) IsSleepingEndDevice() bool {
	switch d {
	case DeviceTypeScan, DeviceTypeSense, DeviceTypeSwitch:
		return true
	default:
		return false
	}
}

// DeviceTypes returns every known device type, excluding DeviceTypeUnknown.
func DeviceTypes() []DeviceType {
	return []DeviceType{
		DeviceTypeCircle,
		DeviceTypeCirclePlus,
		DeviceTypeScan,
		DeviceTypeSense,
		DeviceTypeStealth,
		DeviceTypeStick,
		DeviceTypeSwitch,
	}
}

// ParseDeviceType maps a product label such as "Circle+" or "sense" to a
// device type. Matching ignores case and surrounding space.
func ParseDeviceType(label string) (DeviceType, bool) {
	label = strings.TrimSpace(label)
	for _, d := range DeviceTypes() {
		if strings.EqualFold(d.Label(), label) {
			return d, true
		}
	}
	return DeviceTypeUnknown, false
}
