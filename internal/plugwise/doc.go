// Package plugwise implements the value codec for the Plugwise mesh protocol.
//
// The stick transport extracts fixed-width hex fields from protocol packets;
// this package turns them into physical quantities and back. It performs no
// I/O and holds no mutable state.
//
// # Climate fields
//
// Sense nodes report temperature and humidity as 4 hex digits:
//
//	t, err := plugwise.Temperature.Decode("6A3C")
//	if err != nil {
//	    return err
//	}
//	if v, ok := t.Float64(); ok {
//	    fmt.Printf("%.2f °C\n", v)
//	}
//
// "FFFF" decodes to Undefined, and Undefined encodes back to "FFFF".
//
// # Energy
//
// Relays report pulse counts. Each relay has its own PowerCalibration, read
// once from the node, which corrects the pulses before conversion:
//
//	w, err := plugwise.ToWatts(pulses, 8, cal)
//
// All interval arithmetic is done in UTC; Energy.LocalStart and
// Energy.LocalEnd convert for display only.
//
// # Identity and configuration codes
//
//   - MACAddress: normalised 16-digit node address
//   - MessageType: stick protocol operations and their codes
//   - DeviceType: Circle, Circle+, Scan, Sense, Stealth, Stick, Switch
//   - BoundaryType, BoundaryAction, Sensitivity: Sense/Scan configuration codes
//
// # Thread Safety
//
// All exported types are immutable values; lookup tables are built in init
// and never modified, so everything is safe for concurrent use.
package plugwise
