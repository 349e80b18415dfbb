package plugwise

import (
	"fmt"
	"math"
	"time"
)

// Wire field widths in hex digits.
const (
	// calibrationHexDigits is the width of one calibration coefficient (float32 bits).
	calibrationHexDigits = 8

	// pulses16HexDigits is the width of the short pulse counters.
	pulses16HexDigits = 4

	// pulses32HexDigits is the width of the long pulse counters.
	pulses32HexDigits = 8

	// logDateHexDigits is the width of a power buffer timestamp (YYMMmmmm).
	logDateHexDigits = 8

	// logDateEmpty marks an unused power buffer slot.
	logDateEmpty = 0xFFFFFFFF

	// logDateBaseYear is the year the two-digit year field counts from.
	logDateBaseYear = 2000
)

// ParsePowerCalibration decodes the four coefficients of a calibration response.
//
// Each field is the 8-hex-digit IEEE-754 single-precision bit pattern.
//
// Parameters:
//   - gainA, gainB, offsetTotal, offsetNoise: Hex fields in wire order
//
// Returns:
//   - PowerCalibration: Decoded calibration
//   - error: ErrMalformedField if any field is not 8 hex digits
func ParsePowerCalibration(gainA, gainB, offsetTotal, offsetNoise string) (PowerCalibration, error) {
	var cal PowerCalibration
	fields := []struct {
		name string
		hex  string
		dst  *float64
	}{
		{"gain_a", gainA, &cal.GainA},
		{"gain_b", gainB, &cal.GainB},
		{"offset_total", offsetTotal, &cal.OffsetTotal},
		{"offset_noise", offsetNoise, &cal.OffsetNoise},
	}

	for _, f := range fields {
		bits, err := parseFixedHex(f.hex, calibrationHexDigits)
		if err != nil {
			return PowerCalibration{}, fmt.Errorf("%w: calibration %s %q: %w", ErrMalformedField, f.name, f.hex, err)
		}
		*f.dst = float64(math.Float32frombits(uint32(bits))) //nolint:gosec // 8 hex digits fit in uint32
	}
	return cal, nil
}

// ParsePulses decodes a 4- or 8-hex-digit pulse counter.
//
// Counters are two's complement: relays that measure production report
// negative pulses.
func ParsePulses(field string) (int64, error) {
	switch len(field) {
	case pulses16HexDigits:
		raw, err := parseFixedHex(field, pulses16HexDigits)
		if err != nil {
			return 0, fmt.Errorf("%w: pulses %q: %w", ErrMalformedField, field, err)
		}
		return int64(int16(uint16(raw))), nil //nolint:gosec // 4 hex digits fit in uint16
	case pulses32HexDigits:
		raw, err := parseFixedHex(field, pulses32HexDigits)
		if err != nil {
			return 0, fmt.Errorf("%w: pulses %q: %w", ErrMalformedField, field, err)
		}
		return int64(int32(uint32(raw))), nil //nolint:gosec // 8 hex digits fit in uint32
	default:
		return 0, fmt.Errorf("%w: pulses %q: expected 4 or 8 hex digits", ErrMalformedField, field)
	}
}

// DecodeLogDateTime decodes a power buffer timestamp.
//
// Layout: YY MM mmmm: years since 2000, month (1-12), minutes since the
// start of the month. The result is in UTC.
//
// Returns:
//   - time.Time: Decoded instant
//   - bool: false for an empty slot ("FFFFFFFF")
//   - error: ErrMalformedField for bad hex or an out-of-range month
func DecodeLogDateTime(field string) (time.Time, bool, error) {
	raw, err := parseFixedHex(field, logDateHexDigits)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: log date %q: %w", ErrMalformedField, field, err)
	}
	if raw == logDateEmpty {
		return time.Time{}, false, nil
	}

	year := int(raw>>24) + logDateBaseYear
	month := int((raw >> 16) & 0xFF)
	minutes := int(raw & 0xFFFF)
	if month < 1 || month > 12 {
		return time.Time{}, false, fmt.Errorf("%w: log date %q: month %d", ErrMalformedField, field, month)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration(minutes) * time.Minute), true, nil
}

// EncodeLogDateTime is the inverse of DecodeLogDateTime. t is converted to UTC.
func EncodeLogDateTime(t time.Time) (string, error) {
	t = t.UTC()
	years := t.Year() - logDateBaseYear
	if years < 0 || years > 0xFE {
		return "", fmt.Errorf("%w: log date year %d", ErrOutOfRange, t.Year())
	}
	monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	minutes := int(t.Sub(monthStart) / time.Minute)
	return fmt.Sprintf("%02X%02X%04X", years, int(t.Month()), minutes), nil
}
