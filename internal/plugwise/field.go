package plugwise

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Linear field encoding constants.
const (
	// fieldHexDigits is the width of a temperature/humidity field.
	fieldHexDigits = 4

	// fieldScale is the full-scale divisor of the 16-bit field.
	fieldScale = 65536.0

	// fieldMaxRaw is the largest raw value a real reading may encode to.
	// 0xFFFF is reserved for the undefined sentinel.
	fieldMaxRaw = 0xFFFE

	// UndefinedHex is the wire pattern meaning "no reading available".
	UndefinedHex = "FFFF"
)

// Reading is a decoded physical value that may be undefined.
//
// The zero value is Undefined. A defined reading never collides with the
// sentinel because definedness is carried separately from the value.
type Reading struct {
	value   float64
	defined bool
}

// Undefined is the reading decoded from the "FFFF" sentinel.
var Undefined = Reading{}

// ValueOf returns a defined reading holding v.
func ValueOf(v float64) Reading {
	return Reading{value: v, defined: true}
}

// Float64 returns the value and whether it is defined.
func (r Reading) Float64() (float64, bool) {
	return r.value, r.defined
}

// IsDefined reports whether r holds a real measurement.
func (r Reading) IsDefined() bool {
	return r.defined
}

// String formats r for logs.
func (r Reading) String() string {
	if !r.defined {
		return "undefined"
	}
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}

// LinearField converts a 4-hex-digit big-endian field to a physical value
// with value = Multiplier * raw/65536 - Offset.
//
// Temperature and Humidity are the two fields used by Sense nodes.
type LinearField struct {
	Name       string
	Multiplier float64
	Offset     float64
}

// Sense climate fields.
var (
	// Temperature decodes °C: 175.72 * raw/65536 - 46.85.
	Temperature = LinearField{Name: "temperature", Multiplier: 175.72, Offset: 46.85}

	// Humidity decodes %RH: 125 * raw/65536 - 6.
	Humidity = LinearField{Name: "humidity", Multiplier: 125, Offset: 6}
)

// Decode parses a 4-hex-digit field.
//
// Parameters:
//   - field: Hex digits, either case (e.g. "6A3C")
//
// Returns:
//   - Reading: Decoded value, or Undefined for "FFFF"
//   - error: ErrMalformedField if field is not exactly 4 hex digits
func (f LinearField) Decode(field string) (Reading, error) {
	raw, err := parseFixedHex(field, fieldHexDigits)
	if err != nil {
		return Undefined, fmt.Errorf("%w: %s field %q: %w", ErrMalformedField, f.Name, field, err)
	}
	if raw == math.MaxUint16 {
		return Undefined, nil
	}
	return ValueOf(f.Multiplier*(float64(raw)/fieldScale) - f.Offset), nil
}

// Encode renders a reading as 4 upper-case hex digits.
//
// Undefined encodes to "FFFF" without touching the arithmetic.
//
// Returns:
//   - string: Zero-padded hex field
//   - error: ErrOutOfRange if the value is not finite or falls outside 0x0000-0xFFFE
func (f LinearField) Encode(r Reading) (string, error) {
	if !r.defined {
		return UndefinedHex, nil
	}
	if math.IsNaN(r.value) || math.IsInf(r.value, 0) {
		return "", fmt.Errorf("%w: %s value %v is not finite", ErrOutOfRange, f.Name, r.value)
	}

	raw := math.Round((r.value + f.Offset) * fieldScale / f.Multiplier)
	if raw < 0 || raw > fieldMaxRaw {
		return "", fmt.Errorf("%w: %s value %.4f (valid: %.4f to %.4f)",
			ErrOutOfRange, f.Name, r.value, f.Min(), f.Max())
	}
	return fmt.Sprintf("%04X", uint16(raw)), nil
}

// Min returns the smallest encodable value.
func (f LinearField) Min() float64 {
	return -f.Offset
}

// Max returns the largest encodable value.
func (f LinearField) Max() float64 {
	return f.Multiplier*(fieldMaxRaw/fieldScale) - f.Offset
}

// parseFixedHex parses exactly digits hex characters as an unsigned integer.
func parseFixedHex(s string, digits int) (uint64, error) {
	if len(s) != digits {
		return 0, fmt.Errorf("expected %d hex digits, got %d", digits, len(s))
	}
	if !isHex(s) {
		return 0, errors.New("non-hex characters")
	}
	v, err := strconv.ParseUint(s, 16, digits*4)
	if err != nil {
		return 0, err
	}
	return v, nil
}
