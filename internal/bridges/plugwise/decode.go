package plugwise

import (
	"fmt"
	"math"
	"time"

	pw "github.com/nerrad567/gray-logic-plugwise/internal/plugwise"
)

// State keys published in StateMessage.State.
const (
	StateTemperature        = "temperature"
	StateHumidity           = "humidity"
	StatePulses             = "pulses"
	StatePowerWatts         = "power_watts"
	StateEnergyKWh          = "energy_kwh"
	StateIntervalStart      = "interval_start"
	StateIntervalEnd        = "interval_end"
	StateIntervalStartLocal = "interval_start_local"
	StateIntervalEndLocal   = "interval_end_local"
	StateDeviceType         = "device_type"
	StateRelayDevice        = "relay_device"
	StateSleepingEndDevice  = "sleeping_end_device"
)

// localTimeLayout renders site-local interval bounds with their offset.
const localTimeLayout = time.RFC3339

// maxIntervalSeconds is the longest interval a time.Duration can hold.
const maxIntervalSeconds = math.MaxInt64 / float64(time.Second)

// energyKeys are the state keys written by one pulse counter reading.
var energyKeys = []string{
	StatePulses,
	StatePowerWatts,
	StateEnergyKWh,
	StateIntervalStart,
	StateIntervalEnd,
	StateIntervalStartLocal,
	StateIntervalEndLocal,
}

// DecodedField is the result of decoding one FieldMessage.
type DecodedField struct {
	MessageType pw.MessageType
	KnownType   bool

	State map[string]any

	// DeviceType is set when the message carried a recognised hardware code.
	DeviceType    pw.DeviceType
	HasDeviceType bool

	// Errors lists every field that failed to decode. The remaining fields
	// are still present in State.
	Errors []error
}

// decoder turns raw hex fields into physical quantities.
type decoder struct {
	loc *time.Location

	// logInterval is the interval of power buffer slots, which carry no
	// interval of their own. Zero leaves such readings without one.
	logInterval time.Duration
}

func newDecoder(loc *time.Location, logInterval time.Duration) decoder {
	if loc == nil {
		loc = time.UTC
	}
	return decoder{loc: loc, logInterval: logInterval}
}

// decode converts msg into state. cal is nil when the node's calibration
// is unknown, in which case any pulse counter yields ErrCalibrationMissing.
func (d decoder) decode(msg FieldMessage, cal *pw.PowerCalibration) DecodedField {
	out := DecodedField{State: make(map[string]any)}

	if msg.MessageCode != "" {
		mt, ok, err := pw.ParseMessageCode(msg.MessageCode)
		if err != nil {
			out.Errors = append(out.Errors, err)
		}
		out.MessageType, out.KnownType = mt, ok
	}

	d.decodeLinear(&out, StateTemperature, pw.Temperature, msg.Temperature)
	d.decodeLinear(&out, StateHumidity, pw.Humidity, msg.Humidity)

	if msg.Pulses != "" {
		if err := d.decodeEnergy(&out, msg, cal); err != nil {
			out.Errors = append(out.Errors, err)
		}
	}

	if msg.DeviceTypeCode != nil {
		if dt, ok := pw.DeviceTypeFromCode(*msg.DeviceTypeCode); ok {
			out.DeviceType, out.HasDeviceType = dt, true
			out.State[StateDeviceType] = dt.Label()
			out.State[StateRelayDevice] = dt.IsRelayDevice()
			out.State[StateSleepingEndDevice] = dt.IsSleepingEndDevice()
		} else {
			out.State[StateDeviceType] = pw.DeviceTypeUnknown.Label()
		}
	}

	return out
}

func (d decoder) decodeLinear(out *DecodedField, key string, field pw.LinearField, hex string) {
	if hex == "" {
		return
	}
	r, err := field.Decode(hex)
	if err != nil {
		out.Errors = append(out.Errors, err)
		return
	}
	if v, ok := r.Float64(); ok {
		out.State[key] = v
	} else {
		out.State[key] = nil
	}
}

func (d decoder) decodeEnergy(out *DecodedField, msg FieldMessage, cal *pw.PowerCalibration) error {
	pulses, err := pw.ParsePulses(msg.Pulses)
	if err != nil {
		return err
	}
	if math.IsNaN(msg.IntervalSeconds) || msg.IntervalSeconds < 0 || msg.IntervalSeconds > maxIntervalSeconds {
		return fmt.Errorf("%w: %v seconds", pw.ErrInvalidInterval, msg.IntervalSeconds)
	}

	end := msg.Timestamp
	if msg.LogDateTime != "" {
		logEnd, ok, err := pw.DecodeLogDateTime(msg.LogDateTime)
		if err != nil {
			return err
		}
		if !ok {
			// Empty power buffer slot.
			return nil
		}
		end = logEnd
	}
	if end.IsZero() {
		return fmt.Errorf("%w: pulses without timestamp", pw.ErrMalformedField)
	}

	energy := pw.NewEnergy(end, pulses)
	switch {
	case msg.IntervalSeconds != 0:
		energy = energy.WithInterval(time.Duration(msg.IntervalSeconds * float64(time.Second)))
	case msg.LogDateTime != "" && d.logInterval > 0:
		energy = energy.WithInterval(d.logInterval)
	}

	out.State[StatePulses] = pulses
	out.State[StateIntervalEnd] = energy.End().Format(time.RFC3339)
	out.State[StateIntervalEndLocal] = energy.LocalEnd(d.loc).Format(localTimeLayout)
	if start, ok := energy.Start(); ok {
		out.State[StateIntervalStart] = start.Format(time.RFC3339)
		localStart, _ := energy.LocalStart(d.loc)
		out.State[StateIntervalStartLocal] = localStart.Format(localTimeLayout)
	}

	if cal == nil {
		return ErrCalibrationMissing
	}

	watts, err := energy.Watts(*cal)
	if err != nil {
		return err
	}
	kwh, err := energy.KilowattHours(*cal)
	if err != nil {
		return err
	}
	out.State[StatePowerWatts] = watts
	out.State[StateEnergyKWh] = kwh
	return nil
}
