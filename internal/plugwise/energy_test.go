package plugwise

import (
	"errors"
	"math"
	"testing"
	"time"
	_ "time/tzdata" // Europe/Amsterdam for DST tests
)

// unitCalibration passes pulses through unchanged.
var unitCalibration = PowerCalibration{GainA: 1}

// circleCalibration is a calibration as read from a real Circle.
var circleCalibration = PowerCalibration{
	GainA:       0.98470515,
	GainB:       -4.3797e-07,
	OffsetNoise: 0,
	OffsetTotal: 0.0125,
}

// ─── ToWatts ───────────────────────────────────────────────────────

func TestToWattsBaseline(t *testing.T) {
	got, err := ToWatts(4689, 1, unitCalibration)
	if err != nil {
		t.Fatalf("ToWatts() error = %v", err)
	}
	want := 4689 / (468.9385193 / 1000)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ToWatts(4689, 1) = %v, want %v", got, want)
	}
	if math.Abs(got-10000) > 1 {
		t.Errorf("ToWatts(4689, 1) = %v, want ≈10000", got)
	}
}

func TestToWatts(t *testing.T) {
	tests := []struct {
		name     string
		pulses   int64
		interval float64
		cal      PowerCalibration
		want     float64
	}{
		{"unit calibration 8s", 3752, 8, unitCalibration, 469 / pulsesPerWattSecond},
		{"quadratic gain", 10, 1, PowerCalibration{GainA: 1, GainB: 0.5}, 60 / pulsesPerWattSecond},
		{"offset noise", 10, 1, PowerCalibration{GainA: 1, OffsetNoise: 2}, 12 / pulsesPerWattSecond},
		{"offset total", 10, 1, PowerCalibration{GainA: 1, OffsetTotal: 3}, 13 / pulsesPerWattSecond},
		{"positive input, negative result clamps", 10, 1, PowerCalibration{GainA: -1}, 0},
		{"negative input, positive result clamps", -10, 1, PowerCalibration{GainA: 1, OffsetTotal: 100}, 0},
		{"negative input, negative result kept", -10, 1, unitCalibration, -10 / pulsesPerWattSecond},
		{"corrected exactly zero", 10, 1, PowerCalibration{GainA: 1, OffsetTotal: -10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToWatts(tt.pulses, tt.interval, tt.cal)
			if err != nil {
				t.Fatalf("ToWatts() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ToWatts(%d, %v) = %v, want %v", tt.pulses, tt.interval, got, tt.want)
			}
		})
	}
}

func TestToWattsInvalidInterval(t *testing.T) {
	for _, interval := range []float64{0, -1, math.Inf(-1), math.NaN()} {
		if _, err := ToWatts(100, interval, unitCalibration); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("ToWatts(100, %v) error = %v, want ErrInvalidInterval", interval, err)
		}
		if _, err := ToKilowattHours(100, interval, unitCalibration); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("ToKilowattHours(100, %v) error = %v, want ErrInvalidInterval", interval, err)
		}
	}
}

func TestToWattsZeroPulsesNeverNegative(t *testing.T) {
	cals := []PowerCalibration{
		unitCalibration,
		circleCalibration,
		{GainA: 1, OffsetTotal: -5},
		{GainA: -2, GainB: -1, OffsetNoise: 3, OffsetTotal: -0.5},
		{GainA: 1, OffsetNoise: -4},
		{GainB: 2, OffsetNoise: 1, OffsetTotal: -1},
	}

	for _, cal := range cals {
		got, err := ToWatts(0, 600, cal)
		if err != nil {
			t.Fatalf("ToWatts(0, 600, %+v) error = %v", cal, err)
		}
		if got < 0 {
			t.Errorf("ToWatts(0, 600, %+v) = %v, want >= 0", cal, got)
		}
	}
}

func TestToWattsZeroPulsesRestNoise(t *testing.T) {
	got, err := ToWatts(0, 600, PowerCalibration{GainA: 1, OffsetTotal: 5})
	if err != nil {
		t.Fatal(err)
	}
	if want := 5 / pulsesPerWattSecond; math.Abs(got-want) > 1e-9 {
		t.Errorf("ToWatts(0, 600) = %v, want rest-noise floor %v", got, want)
	}
}

// ─── ToKilowattHours ───────────────────────────────────────────────

func TestToKilowattHours(t *testing.T) {
	// One hour at 1000 W.
	pulses := int64(math.Round(1000 * pulsesPerWattSecond * 3600))
	got, err := ToKilowattHours(pulses, 3600, unitCalibration)
	if err != nil {
		t.Fatalf("ToKilowattHours() error = %v", err)
	}
	if math.Abs(got-1) > 1e-6 {
		t.Errorf("ToKilowattHours(%d, 3600) = %v, want 1", pulses, got)
	}
}

func TestToKilowattHoursMonotonicInInterval(t *testing.T) {
	cal := PowerCalibration{GainA: 1.2, OffsetNoise: 0.5, OffsetTotal: 0.1}
	const pulses = 1000

	prev := math.Inf(-1)
	for seconds := 1.0; seconds <= 3600; seconds += 7 {
		got, err := ToKilowattHours(pulses, seconds, cal)
		if err != nil {
			t.Fatalf("ToKilowattHours(%d, %v) error = %v", pulses, seconds, err)
		}
		if got < prev {
			t.Fatalf("ToKilowattHours(%d, %v) = %v, decreased from %v", pulses, seconds, got, prev)
		}
		prev = got
	}
}

// ─── Intervals ─────────────────────────────────────────────────────

func TestIntervalStartInverse(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	ends := []time.Time{
		time.Date(2026, 3, 29, 2, 0, 0, 0, time.UTC),  // spring forward in Europe
		time.Date(2026, 10, 25, 1, 30, 0, 0, time.UTC), // fall back in Europe
		time.Date(2026, 10, 25, 3, 0, 0, 0, ams),
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	durations := []time.Duration{0, time.Second, 8 * time.Second, time.Hour, 2 * time.Hour, 24 * time.Hour}

	for _, end := range ends {
		for _, d := range durations {
			start := IntervalStart(end, d)
			if start.Location() != time.UTC {
				t.Errorf("IntervalStart(%v, %v) location = %v, want UTC", end, d, start.Location())
			}
			if !start.Add(d).Equal(end) {
				t.Errorf("IntervalStart(%v, %v) + %v = %v, want %v", end, d, d, start.Add(d), end)
			}
		}
	}
}

func TestEnergyLocalAcrossDST(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	// 00:00Z-02:00Z spans the 01:00Z switch from CET to CEST.
	e := NewEnergyWithInterval(time.Date(2026, 3, 29, 2, 0, 0, 0, time.UTC), 1000, 2*time.Hour)

	localStart, ok := e.LocalStart(ams)
	if !ok {
		t.Fatal("LocalStart() ok = false")
	}
	localEnd := e.LocalEnd(ams)

	if localStart.Hour() != 1 || localEnd.Hour() != 4 {
		t.Errorf("local wall clock = %02d:00-%02d:00, want 01:00-04:00", localStart.Hour(), localEnd.Hour())
	}
	if got := localEnd.Sub(localStart); got != 2*time.Hour {
		t.Errorf("local interval = %v, want 2h", got)
	}
	if d, _ := e.Interval(); d != 2*time.Hour {
		t.Errorf("Interval() = %v, want 2h", d)
	}
}

// ─── Energy ────────────────────────────────────────────────────────

func TestEnergyWithoutInterval(t *testing.T) {
	end := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	e := NewEnergy(end, 500)

	if _, ok := e.Start(); ok {
		t.Error("Start() ok = true for unknown interval")
	}
	if _, ok := e.LocalStart(time.UTC); ok {
		t.Error("LocalStart() ok = true for unknown interval")
	}
	if _, err := e.Watts(unitCalibration); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("Watts() error = %v, want ErrInvalidInterval", err)
	}
	if _, err := e.KilowattHours(unitCalibration); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("KilowattHours() error = %v, want ErrInvalidInterval", err)
	}

	withInterval := e.WithInterval(time.Hour)
	start, ok := withInterval.Start()
	if !ok || !start.Equal(end.Add(-time.Hour)) {
		t.Errorf("WithInterval(1h).Start() = (%v, %v), want %v", start, ok, end.Add(-time.Hour))
	}
	if _, ok := e.Interval(); ok {
		t.Error("WithInterval modified the original reading")
	}
	if withInterval.Pulses() != 500 || !withInterval.End().Equal(end) {
		t.Error("WithInterval lost pulses or end")
	}
}

func TestEnergyConversions(t *testing.T) {
	end := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	e := NewEnergyWithInterval(end, 3752, 8*time.Second)

	watts, err := e.Watts(unitCalibration)
	if err != nil {
		t.Fatalf("Watts() error = %v", err)
	}
	want, _ := ToWatts(3752, 8, unitCalibration)
	if watts != want {
		t.Errorf("Watts() = %v, want %v", watts, want)
	}

	kwh, err := e.KilowattHours(unitCalibration)
	if err != nil {
		t.Fatalf("KilowattHours() error = %v", err)
	}
	if wantKWh := want * 8 / 3600 / 1000; math.Abs(kwh-wantKWh) > 1e-12 {
		t.Errorf("KilowattHours() = %v, want %v", kwh, wantKWh)
	}
}

func TestEnergyEndIsUTC(t *testing.T) {
	ams, _ := time.LoadLocation("Europe/Amsterdam")
	e := NewEnergy(time.Date(2026, 7, 1, 12, 0, 0, 0, ams), 1)
	if e.End().Location() != time.UTC {
		t.Errorf("End() location = %v, want UTC", e.End().Location())
	}
	if e.End().Hour() != 10 {
		t.Errorf("End() hour = %d, want 10", e.End().Hour())
	}
}
