package plugwise

import (
	"errors"
	"testing"
)

func TestMessageTypeRoundTrip(t *testing.T) {
	for _, mt := range MessageTypes() {
		t.Run(mt.String(), func(t *testing.T) {
			got, ok := MessageTypeFromCode(mt.Code())
			if !ok {
				t.Fatalf("MessageTypeFromCode(0x%04X) not found", mt.Code())
			}
			if got != mt {
				t.Errorf("MessageTypeFromCode(%d) = %v, want %v", mt.Code(), got, mt)
			}
		})
	}
}

func TestMessageTypeCodesUnique(t *testing.T) {
	seen := make(map[int]MessageType)
	for _, mt := range MessageTypes() {
		if prev, dup := seen[mt.Code()]; dup {
			t.Errorf("code 0x%04X used by %v and %v", mt.Code(), prev, mt)
		}
		seen[mt.Code()] = mt
	}
}

func TestMessageTypesCoverEnumeration(t *testing.T) {
	// Every constant after MessageTypeUnknown must be in the table.
	for mt := MessageTypeAcknowledgementV1; mt <= MessageTypeSleepSetRequest; mt++ {
		if mt.Code() < 0 {
			t.Errorf("MessageType(%d) has no code", int(mt))
		}
	}
	if got, want := len(MessageTypes()), int(MessageTypeSleepSetRequest); got != want {
		t.Errorf("len(MessageTypes()) = %d, want %d", got, want)
	}
}

func TestMessageTypeFromCode(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		want   MessageType
		wantOK bool
	}{
		{"power information request", 0x0012, MessageTypePowerInformationRequest, true},
		{"power information response", 0x0013, MessageTypePowerInformationResponse, true},
		{"clock set", 0x0016, MessageTypeClockSetRequest, true},
		{"role call", 0x0018, MessageTypeDeviceRoleCallRequest, true},
		{"sense report interval", 0x0103, MessageTypeSenseReportIntervalSetRequest, true},
		{"sense report", 0x0105, MessageTypeSenseReportRequest, true},
		{"unknown", 0x9999, MessageTypeUnknown, false},
		{"negative", -1, MessageTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MessageTypeFromCode(tt.code)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MessageTypeFromCode(0x%04X) = (%v, %v), want (%v, %v)", tt.code, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMessageTypeUnknown(t *testing.T) {
	if got := MessageTypeUnknown.Code(); got != -1 {
		t.Errorf("MessageTypeUnknown.Code() = %d, want -1", got)
	}
	if got := MessageTypeUnknown.String(); got != "unknown" {
		t.Errorf("MessageTypeUnknown.String() = %q, want unknown", got)
	}
	if got := MessageTypePingRequest.String(); got != "ping_request" {
		t.Errorf("MessageTypePingRequest.String() = %q", got)
	}
}

func TestParseMessageCode(t *testing.T) {
	tests := []struct {
		field   string
		want    MessageType
		wantOK  bool
		wantErr bool
	}{
		{"0013", MessageTypePowerInformationResponse, true, false},
		{"0104", MessageTypeSenseBoundariesSetRequest, true, false},
		{"0027", MessageTypeDeviceCalibrationResponse, true, false},
		{"0fff", MessageTypeUnknown, false, false},
		{"13", MessageTypeUnknown, false, true},
		{"00G3", MessageTypeUnknown, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok, err := ParseMessageCode(tt.field)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessageCode(%q) error = %v, wantErr %v", tt.field, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedField) {
				t.Errorf("error = %v, want ErrMalformedField", err)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseMessageCode(%q) = (%v, %v), want (%v, %v)", tt.field, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMessageTypeCodeHex(t *testing.T) {
	if got := MessageTypeScanParametersSetRequest.CodeHex(); got != "0101" {
		t.Errorf("CodeHex() = %q, want \"0101\"", got)
	}
	if got := MessageTypeUnknown.CodeHex(); got != "" {
		t.Errorf("MessageTypeUnknown.CodeHex() = %q, want empty", got)
	}
	for _, mt := range MessageTypes() {
		got, ok, err := ParseMessageCode(mt.CodeHex())
		if err != nil || !ok || got != mt {
			t.Errorf("ParseMessageCode(%q) = (%v, %v, %v), want %v", mt.CodeHex(), got, ok, err, mt)
		}
	}
}
