// Package plugwise implements the MQTT bridge around the Plugwise value codec.
//
// The bridge does not talk to the USB stick. An external transport owns the
// serial link, frames and CRCs, and hands each received packet's raw hex
// fields to the bridge over MQTT. The bridge decodes them into physical
// quantities for Core and encodes Core's configuration commands back into
// request fields for the transport.
//
// # Architecture
//
//	┌─────────────────┐          ┌──────────────────┐          ┌─────────────┐
//	│   Gray Logic    │   MQTT   │  Plugwise Bridge │   MQTT   │   Stick     │
//	│      Core       │◄────────►│    (this pkg)    │◄────────►│  transport  │
//	└─────────────────┘          └──────────────────┘          └─────────────┘
//
// # Topics
//
// All topics follow graylogic/{category}/plugwise/{mac}:
//
//   - field (in): raw hex fields of one packet
//   - calibration (in): a relay's calibration response
//   - command (in): configuration commands from Core
//   - state (out, retained): decoded temperature, humidity, power and energy
//   - encoded (out): request fields for the transport
//   - ack (out): command acknowledgments
//
// Health is published retained on graylogic/health/plugwise.
//
// # Calibrations
//
// Power and energy can only be computed once a relay's calibration is known.
// Calibrations are cached in memory and persisted through a
// CalibrationRepository. A calibration reported by the node replaces one
// seeded from the configuration file, including across restarts.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package plugwise
