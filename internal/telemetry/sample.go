package telemetry

import (
	"math"
	"time"
)

// Origin tags where a sample came from. Frames whose origin does not match
// the active source mode never enter the pipeline.
type Origin string

const (
	OriginHardware  Origin = "hardware"
	OriginSynthetic Origin = "synthetic"
)

// Sample is one decoded feedback frame from the rover.
//
// Yaw/pitch/roll are in degrees. Timestamp is unix milliseconds as reported
// by the firmware (or the decode time when the frame carries none). The
// remaining fields are auxiliary telemetry and may be zero when the firmware
// did not report them.
type Sample struct {
	Timestamp int64   `json:"timestamp"`
	Yaw       float64 `json:"yaw"`
	Pitch     float64 `json:"pitch"`
	Roll      float64 `json:"roll"`

	LeftSpeed    float64 `json:"left_speed,omitempty"`
	RightSpeed   float64 `json:"right_speed,omitempty"`
	TemperatureC float64 `json:"temperature_c,omitempty"`
	VoltageV     float64 `json:"voltage_v,omitempty"`
	LinkQuality  float64 `json:"link_quality,omitempty"`

	// GPS auxiliary data folded in from NMEA sentences on the shared UART.
	SpeedKn   float64 `json:"speed_kn,omitempty"`
	CourseDeg float64 `json:"course_deg,omitempty"`

	Origin Origin `json:"origin"`

	// Calibrated is set once the sample has passed through a calibrated
	// offset filter. Raw frames always carry false.
	Calibrated bool `json:"calibrated"`
}

// Time returns the sample timestamp as a time.Time.
func (s Sample) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Magnitude returns the largest absolute orientation value across the three
// axes. Used by the stillness predicate and the emotion policy.
func (s Sample) Magnitude() float64 {
	m := math.Abs(s.Yaw)
	if p := math.Abs(s.Pitch); p > m {
		m = p
	}
	if r := math.Abs(s.Roll); r > m {
		m = r
	}
	return m
}

// Finite reports whether all orientation fields are finite numbers.
func (s Sample) Finite() bool {
	for _, v := range [...]float64{s.Yaw, s.Pitch, s.Roll} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
