package plugwise

import (
	"errors"
	"testing"
	"time"
)

func TestParsePowerCalibration(t *testing.T) {
	cal, err := ParsePowerCalibration("3F800000", "BFC00000", "3F000000", "00000000")
	if err != nil {
		t.Fatalf("ParsePowerCalibration() error = %v", err)
	}
	want := PowerCalibration{GainA: 1, GainB: -1.5, OffsetTotal: 0.5, OffsetNoise: 0}
	if cal != want {
		t.Errorf("ParsePowerCalibration() = %+v, want %+v", cal, want)
	}
}

func TestParsePowerCalibrationMalformed(t *testing.T) {
	tests := []struct {
		name                       string
		gainA, gainB, total, noise string
	}{
		{"short gain a", "3F80000", "00000000", "00000000", "00000000"},
		{"non-hex gain b", "3F800000", "ZZZZZZZZ", "00000000", "00000000"},
		{"empty offset total", "3F800000", "00000000", "", "00000000"},
		{"long offset noise", "3F800000", "00000000", "00000000", "000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePowerCalibration(tt.gainA, tt.gainB, tt.total, tt.noise)
			if !errors.Is(err, ErrMalformedField) {
				t.Errorf("ParsePowerCalibration() error = %v, want ErrMalformedField", err)
			}
		})
	}
}

func TestParsePulses(t *testing.T) {
	tests := []struct {
		hex     string
		want    int64
		wantErr bool
	}{
		{"0000", 0, false},
		{"0010", 16, false},
		{"7FFF", 32767, false},
		{"FFFF", -1, false},
		{"00001000", 4096, false},
		{"7FFFFFFF", 2147483647, false},
		{"FFFFFFFE", -2, false},
		{"123", 0, true},
		{"123456", 0, true},
		{"XYZW", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			got, err := ParsePulses(tt.hex)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePulses(%q) error = %v, wantErr %v", tt.hex, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedField) {
					t.Errorf("error = %v, want ErrMalformedField", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParsePulses(%q) = %d, want %d", tt.hex, got, tt.want)
			}
		})
	}
}

func TestDecodeLogDateTime(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		want    time.Time
		wantOK  bool
		wantErr bool
	}{
		{"start of month", "1A0A0000", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), true, false},
		{"one day in", "1A0A05A0", time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), true, false},
		{"lower case", "1a0a05a0", time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), true, false},
		{"empty slot", "FFFFFFFF", time.Time{}, false, false},
		{"month zero", "1A000000", time.Time{}, false, true},
		{"month thirteen", "1A0D0000", time.Time{}, false, true},
		{"short", "1A0A05A", time.Time{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := DecodeLogDateTime(tt.hex)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeLogDateTime(%q) error = %v, wantErr %v", tt.hex, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedField) {
					t.Errorf("error = %v, want ErrMalformedField", err)
				}
				return
			}
			if ok != tt.wantOK || !got.Equal(tt.want) {
				t.Errorf("DecodeLogDateTime(%q) = (%v, %v), want (%v, %v)", tt.hex, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEncodeLogDateTime(t *testing.T) {
	ts := time.Date(2026, 10, 18, 13, 45, 0, 0, time.UTC)
	hex, err := EncodeLogDateTime(ts)
	if err != nil {
		t.Fatalf("EncodeLogDateTime() error = %v", err)
	}
	back, ok, err := DecodeLogDateTime(hex)
	if err != nil || !ok {
		t.Fatalf("DecodeLogDateTime(%q) = (%v, %v, %v)", hex, back, ok, err)
	}
	if !back.Equal(ts) {
		t.Errorf("round trip = %v, want %v", back, ts)
	}

	if _, err := EncodeLogDateTime(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("EncodeLogDateTime(1999) error = %v, want ErrOutOfRange", err)
	}
}
