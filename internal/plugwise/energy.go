package plugwise

import (
	"fmt"
	"math"
	"time"
)

// Energy conversion constants.
const (
	// pulsesPerKilowattSecond relates metering pulses to energy.
	pulsesPerKilowattSecond = 468.9385193

	// wattsPerKilowatt converts W to kW.
	wattsPerKilowatt = 1000

	// pulsesPerWattSecond is the divisor applied to corrected pulses per second.
	pulsesPerWattSecond = pulsesPerKilowattSecond / wattsPerKilowatt

	// secondsPerHour converts W·s to W·h.
	secondsPerHour = 3600
)

// PowerCalibration is the per-node correction for a relay's metering hardware.
//
// It is retrieved once per node with a calibration request and treated as
// read-only for the lifetime of the node's session.
type PowerCalibration struct {
	GainA       float64 `json:"gain_a" yaml:"gain_a"`
	GainB       float64 `json:"gain_b" yaml:"gain_b"`
	OffsetNoise float64 `json:"offset_noise" yaml:"offset_noise"`
	OffsetTotal float64 `json:"offset_total" yaml:"offset_total"`
}

// correctPulses applies the calibration polynomial to average pulses per second.
//
// A result whose sign disagrees with the input is noise and clamps to 0.
// Zero input counts as non-negative, so a negative rest-noise floor reads 0.
func (c PowerCalibration) correctPulses(averagePulses float64) float64 {
	x := averagePulses + c.OffsetNoise
	corrected := x*x*c.GainB + x*c.GainA + c.OffsetTotal

	if (averagePulses >= 0 && corrected < 0) || (averagePulses < 0 && corrected > 0) {
		return 0
	}
	return corrected
}

// ToWatts converts a pulse count over an interval to average power.
//
// Parameters:
//   - pulses: Pulses accumulated during the interval
//   - intervalSeconds: Interval length in seconds (must be > 0)
//   - cal: Calibration of the node that reported the pulses
//
// Returns:
//   - float64: Average power in watts
//   - error: ErrInvalidInterval if intervalSeconds <= 0 or NaN
func ToWatts(pulses int64, intervalSeconds float64, cal PowerCalibration) (float64, error) {
	if !(intervalSeconds > 0) {
		return 0, fmt.Errorf("%w: %v seconds", ErrInvalidInterval, intervalSeconds)
	}
	averagePulses := float64(pulses) / intervalSeconds
	return cal.correctPulses(averagePulses) / pulsesPerWattSecond, nil
}

// ToKilowattHours converts a pulse count over an interval to energy.
//
// Returns ErrInvalidInterval under the same conditions as ToWatts.
func ToKilowattHours(pulses int64, intervalSeconds float64, cal PowerCalibration) (float64, error) {
	watts, err := ToWatts(pulses, intervalSeconds, cal)
	if err != nil {
		return 0, err
	}
	return watts * intervalSeconds / secondsPerHour / wattsPerKilowatt, nil
}

// IntervalStart returns end minus interval, computed in UTC.
//
// Working in UTC keeps an interval from gaining or losing an hour when it
// spans a daylight-saving transition.
func IntervalStart(end time.Time, interval time.Duration) time.Time {
	return end.UTC().Add(-interval)
}

// Energy is a pulse count reported by a relay for an interval ending at End.
//
// The interval may be unknown when the reading is decoded (power buffer
// entries learn their interval from the configured log interval later).
// The start instant is always derived from End and the interval.
type Energy struct {
	pulses      int64
	end         time.Time
	interval    time.Duration
	hasInterval bool
}

// NewEnergy creates a reading whose interval is not yet known.
func NewEnergy(end time.Time, pulses int64) Energy {
	return Energy{pulses: pulses, end: end.UTC()}
}

// NewEnergyWithInterval creates a reading with a known interval.
func NewEnergyWithInterval(end time.Time, pulses int64, interval time.Duration) Energy {
	return Energy{pulses: pulses, end: end.UTC(), interval: interval, hasInterval: true}
}

// WithInterval returns a copy of e with the interval set.
func (e Energy) WithInterval(interval time.Duration) Energy {
	e.interval = interval
	e.hasInterval = true
	return e
}

// Pulses returns the raw pulse count.
func (e Energy) Pulses() int64 {
	return e.pulses
}

// End returns the UTC end of the interval.
func (e Energy) End() time.Time {
	return e.end
}

// Interval returns the interval and whether it is known.
func (e Energy) Interval() (time.Duration, bool) {
	return e.interval, e.hasInterval
}

// Start returns the UTC start of the interval, or false if the interval is unknown.
func (e Energy) Start() (time.Time, bool) {
	if !e.hasInterval {
		return time.Time{}, false
	}
	return IntervalStart(e.end, e.interval), true
}

// LocalEnd returns End in loc for display.
func (e Energy) LocalEnd(loc *time.Location) time.Time {
	return e.end.In(loc)
}

// LocalStart returns Start in loc for display.
func (e Energy) LocalStart(loc *time.Location) (time.Time, bool) {
	start, ok := e.Start()
	if !ok {
		return time.Time{}, false
	}
	return start.In(loc), true
}

// Watts returns the average power over the interval.
func (e Energy) Watts(cal PowerCalibration) (float64, error) {
	return ToWatts(e.pulses, e.intervalSeconds(), cal)
}

// KilowattHours returns the energy consumed over the interval.
func (e Energy) KilowattHours(cal PowerCalibration) (float64, error) {
	return ToKilowattHours(e.pulses, e.intervalSeconds(), cal)
}

// intervalSeconds returns the interval length, or NaN when unknown so the
// conversion functions reject it.
func (e Energy) intervalSeconds() float64 {
	if !e.hasInterval {
		return math.NaN()
	}
	return e.interval.Seconds()
}
