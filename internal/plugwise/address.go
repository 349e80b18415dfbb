package plugwise

import (
	"fmt"
	"strings"
)

// macAddressLength is the number of hex digits in a node address (EUI-64).
const macAddressLength = 16

// MACAddress identifies a node on the mesh.
//
// Format: 16 hex digits, e.g. "000D6F0000B1B64B". The value is stored in
// upper case so two addresses parsed from differently cased input compare
// equal with == and can be used directly as map keys.
type MACAddress struct {
	value string
}

// ParseMACAddress parses and normalises a node address.
//
// Parameters:
//   - raw: Address as found on the wire or in configuration
//
// Returns:
//   - MACAddress: Normalised address
//   - error: ErrMalformedAddress if raw is not exactly 16 hex digits
//
// Example:
//
//	mac, err := ParseMACAddress("000d6f0000b1b64b")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(mac) // "000D6F0000B1B64B"
func ParseMACAddress(raw string) (MACAddress, error) {
	if len(raw) != macAddressLength {
		return MACAddress{}, fmt.Errorf("%w: expected %d hex digits, got %q", ErrMalformedAddress, macAddressLength, raw)
	}
	if !isHex(raw) {
		return MACAddress{}, fmt.Errorf("%w: non-hex characters in %q", ErrMalformedAddress, raw)
	}
	return MACAddress{value: strings.ToUpper(raw)}, nil
}

// MustParseMACAddress is like ParseMACAddress but panics on error.
// Intended for tests and static tables only.
func MustParseMACAddress(raw string) MACAddress {
	mac, err := ParseMACAddress(raw)
	if err != nil {
		panic(err)
	}
	return mac
}

// String returns the canonical upper-case form.
func (m MACAddress) String() string {
	return m.value
}

// IsZero reports whether m is the zero value (never parsed).
func (m MACAddress) IsZero() bool {
	return m.value == ""
}

// isHex reports whether s consists only of hex digits.
func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
