// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

var (
	// ErrNoSample marks lines that are valid traffic but carry no sample:
	// blank lines, firmware chatter, NMEA sentences.
	ErrNoSample = errors.New("line carries no sample")

	// ErrForeignOrigin marks well-formed frames tagged with an origin that
	// does not match the active source mode.
	ErrForeignOrigin = errors.New("sample origin does not match source mode")
)

// frame mirrors the wire format. Required fields are pointers so that absent
// and zero can be told apart; unknown fields are ignored by encoding/json.
type frame struct {
	Timestamp *int64   `json:"timestamp"`
	Yaw       *float64 `json:"yaw"`
	Pitch     *float64 `json:"pitch"`
	Roll      *float64 `json:"roll"`

	LeftSpeed    float64 `json:"left_speed"`
	RightSpeed   float64 `json:"right_speed"`
	TemperatureC float64 `json:"temperature_c"`
	VoltageV     float64 `json:"voltage_v"`
	LinkQuality  float64 `json:"link_quality"`

	Origin string `json:"origin"`
}

// Decoder parses newline-delimited wire frames into Samples.
//
// Two line shapes arrive on the rover UART: JSON feedback frames, and NMEA
// sentences when a GPS puck shares the port. NMEA carries no orientation, so
// its speed/course are remembered and folded into the next decoded Sample.
// A Decoder is owned by a single acquisition goroutine and is not safe for
// concurrent use.
type Decoder struct {
	origin Origin

	haveFix   bool
	speedKn   float64
	courseDeg float64
}

// NewDecoder returns a decoder accepting frames tagged with the given origin.
func NewDecoder(origin Origin) *Decoder {
	return &Decoder{origin: origin}
}

// Decode parses one raw line. Lines that carry no sample return ErrNoSample;
// structurally broken or foreign-origin frames return a describing error.
// Callers are expected to drop erroring lines from the sample stream but may
// still forward them verbatim for diagnostics.
func (d *Decoder) Decode(line string) (Sample, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Sample{}, ErrNoSample
	}

	if strings.HasPrefix(line, "$") {
		d.ingestNMEA(line)
		return Sample{}, ErrNoSample
	}

	var f frame
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return Sample{}, fmt.Errorf("malformed frame: %w", err)
	}
	if f.Yaw == nil || f.Pitch == nil || f.Roll == nil {
		return Sample{}, fmt.Errorf("frame missing orientation fields")
	}
	if f.Origin != "" && Origin(f.Origin) != d.origin {
		return Sample{}, fmt.Errorf("%w: got %q, want %q", ErrForeignOrigin, f.Origin, d.origin)
	}

	s := Sample{
		Yaw:          *f.Yaw,
		Pitch:        *f.Pitch,
		Roll:         *f.Roll,
		LeftSpeed:    f.LeftSpeed,
		RightSpeed:   f.RightSpeed,
		TemperatureC: f.TemperatureC,
		VoltageV:     f.VoltageV,
		LinkQuality:  f.LinkQuality,
		Origin:       d.origin,
	}
	if !s.Finite() {
		return Sample{}, fmt.Errorf("frame has non-finite orientation values")
	}

	if f.Timestamp != nil {
		s.Timestamp = *f.Timestamp
	} else {
		s.Timestamp = time.Now().UnixMilli()
	}

	if d.haveFix {
		s.SpeedKn = d.speedKn
		s.CourseDeg = d.courseDeg
	}

	return s, nil
}

// ingestNMEA remembers speed/course from valid RMC sentences. Parse errors
// are expected on a noisy UART and are silently ignored, matching how the
// GPS reader treats partial sentences.
func (d *Decoder) ingestNMEA(line string) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		return
	}
	if sentence.DataType() != nmea.TypeRMC {
		return
	}
	m := sentence.(nmea.RMC)
	if m.Validity != nmea.ValidRMC {
		return
	}
	d.haveFix = true
	d.speedKn = m.Speed
	d.courseDeg = m.Course
}
