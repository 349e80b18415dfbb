package plugwise

import (
	"fmt"
	"math"
	"time"

	pw "github.com/nerrad567/gray-logic-plugwise/internal/plugwise"
)

// Supported command names.
const (
	CommandSetSensitivity    = "set_sensitivity"
	CommandSetBoundaries     = "set_boundaries"
	CommandSetReportInterval = "set_report_interval"
	CommandSetLogInterval    = "set_log_interval"
	CommandSetClock          = "set_clock"
)

// Parameter limits.
const (
	defaultResetTimerMinutes = 10
	maxResetTimerMinutes     = 0xF0
	maxReportInterval        = 0xFF
	maxLogInterval           = 0xFFFF
)

// encoder turns commands from Core into request fields for the transport.
type encoder struct {
	now func() time.Time
}

func newEncoder() encoder {
	return encoder{now: time.Now}
}

// encode returns the request type and its hex fields for cmd.
//
// Returns:
//   - pw.MessageType: Request to send
//   - map[string]string: Named hex fields in wire order of the request
//   - error: ErrInvalidCommand or ErrInvalidParameters
func (e encoder) encode(cmd CommandMessage) (pw.MessageType, map[string]string, error) {
	switch cmd.Command {
	case CommandSetSensitivity:
		fields, err := encodeScanParameters(cmd.Parameters)
		return pw.MessageTypeScanParametersSetRequest, fields, err
	case CommandSetBoundaries:
		fields, err := encodeBoundaries(cmd.Parameters)
		return pw.MessageTypeSenseBoundariesSetRequest, fields, err
	case CommandSetReportInterval:
		minutes, err := intParam(cmd.Parameters, "minutes", 1, maxReportInterval)
		if err != nil {
			return pw.MessageTypeSenseReportIntervalSetRequest, nil, err
		}
		return pw.MessageTypeSenseReportIntervalSetRequest, map[string]string{
			"interval": fmt.Sprintf("%02X", minutes),
		}, nil
	case CommandSetLogInterval:
		fields, err := encodeLogInterval(cmd.Parameters)
		return pw.MessageTypePowerLogIntervalSetRequest, fields, err
	case CommandSetClock:
		fields, err := e.encodeClock(cmd.Parameters)
		return pw.MessageTypeClockSetRequest, fields, err
	default:
		return pw.MessageTypeUnknown, nil, fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Command)
	}
}

func encodeScanParameters(params map[string]any) (map[string]string, error) {
	name, err := stringParam(params, "sensitivity")
	if err != nil {
		return nil, err
	}
	sensitivity, ok := pw.ParseSensitivity(name)
	if !ok {
		return nil, fmt.Errorf("%w: sensitivity %q", ErrInvalidParameters, name)
	}

	resetTimer := defaultResetTimerMinutes
	if _, present := params["reset_timer"]; present {
		if resetTimer, err = intParam(params, "reset_timer", 1, maxResetTimerMinutes); err != nil {
			return nil, err
		}
	}

	daylight := false
	if v, present := params["daylight_mode"]; present {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: daylight_mode must be a boolean", ErrInvalidParameters)
		}
		daylight = b
	}

	return map[string]string{
		"reset_timer":   fmt.Sprintf("%02X", resetTimer),
		"sensitivity":   sensitivity.Hex(),
		"daylight_mode": boolHex(daylight),
	}, nil
}

func encodeBoundaries(params map[string]any) (map[string]string, error) {
	typeName, err := stringParam(params, "boundary")
	if err != nil {
		return nil, err
	}
	boundary, ok := pw.ParseBoundaryType(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: boundary %q", ErrInvalidParameters, typeName)
	}

	action := pw.BoundaryActionOffBelowOnAbove
	if _, present := params["action"]; present {
		name, err := stringParam(params, "action")
		if err != nil {
			return nil, err
		}
		if action, ok = pw.ParseBoundaryAction(name); !ok {
			return nil, fmt.Errorf("%w: action %q", ErrInvalidParameters, name)
		}
	}

	fields := map[string]string{
		"boundary_type": boundary.Hex(),
		"upper_action":  fmt.Sprintf("%02X", action.UpperAction()),
		"lower_action":  fmt.Sprintf("%02X", action.LowerAction()),
	}

	field, hasField := boundary.Field()
	if !hasField {
		fields["upper"] = pw.UndefinedHex
		fields["lower"] = pw.UndefinedHex
		return fields, nil
	}

	lower, err := numberParam(params, "lower")
	if err != nil {
		return nil, err
	}
	upper, err := numberParam(params, "upper")
	if err != nil {
		return nil, err
	}
	if lower > upper {
		return nil, fmt.Errorf("%w: lower %v above upper %v", ErrInvalidParameters, lower, upper)
	}

	for key, v := range map[string]float64{"lower": lower, "upper": upper} {
		hex, err := field.Encode(pw.ValueOf(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidParameters, key, err)
		}
		fields[key] = hex
	}
	return fields, nil
}

func encodeLogInterval(params map[string]any) (map[string]string, error) {
	consumption, err := intParam(params, "consumption", 0, maxLogInterval)
	if err != nil {
		return nil, err
	}
	production := 0
	if _, present := params["production"]; present {
		if production, err = intParam(params, "production", 0, maxLogInterval); err != nil {
			return nil, err
		}
	}
	return map[string]string{
		"consumption": fmt.Sprintf("%04X", consumption),
		"production":  fmt.Sprintf("%04X", production),
	}, nil
}

func (e encoder) encodeClock(params map[string]any) (map[string]string, error) {
	at := e.now()
	if _, present := params["time"]; present {
		raw, err := stringParam(params, "time")
		if err != nil {
			return nil, err
		}
		if at, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, fmt.Errorf("%w: time: %w", ErrInvalidParameters, err)
		}
	}

	hex, err := pw.EncodeLogDateTime(at)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return map[string]string{"log_datetime": hex}, nil
}

// ─── Parameter helpers ───────────────────────────────────────────────

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParameters, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidParameters, key)
	}
	return s, nil
}

// numberParam accepts float64 (JSON numbers) and int.
func numberParam(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParameters, key)
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %s must be finite", ErrInvalidParameters, key)
		}
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidParameters, key)
	}
}

// intParam reads a whole number within [lo, hi].
func intParam(params map[string]any, key string, lo, hi int) (int, error) {
	f, err := numberParam(params, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
		return 0, fmt.Errorf("%w: %s must be a whole number from %d to %d", ErrInvalidParameters, key, lo, hi)
	}
	return int(f), nil
}

func boolHex(b bool) string {
	if b {
		return "01"
	}
	return "00"
}
