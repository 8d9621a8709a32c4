// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package policy decides the discrete emotion target from calibrated motion
// and baseline confidence.
package policy

import (
	"time"

	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// Emotion is one of the closed set of face states.
type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionSurprised Emotion = "surprised"
	EmotionSleepy    Emotion = "sleepy"
	EmotionCurious   Emotion = "curious"
	EmotionExcited   Emotion = "excited"
	EmotionAngry     Emotion = "angry"
	EmotionFearful   Emotion = "fearful"
	EmotionDisgusted Emotion = "disgusted"
	EmotionSmirk     Emotion = "smirk"
	EmotionProud     Emotion = "proud"
)

// Emotions lists every emotion the policy can emit or a preset can name.
func Emotions() []Emotion {
	return []Emotion{
		EmotionNeutral, EmotionHappy, EmotionSad, EmotionSurprised,
		EmotionSleepy, EmotionCurious, EmotionExcited, EmotionAngry,
		EmotionFearful, EmotionDisgusted, EmotionSmirk, EmotionProud,
	}
}

// Target is the decided face state plus an intensity in [0,1].
type Target struct {
	Emotion   Emotion `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// Thresholds in degrees separating the motion bands, and the default
// hysteresis dwell. The voltage floor mirrors the face widget's forced
// low-battery reaction.
const (
	NoiseDeg   = 1.5
	AlertDeg   = 8.0
	StartleDeg = 20.0

	DefaultDwell = 500 * time.Millisecond
	SleepyAfter  = 30 * time.Second

	LowVoltage = 10.0
)

// Policy maps calibrated samples to emotion targets. Classification itself
// is a fixed function of the inputs; the only state carried between calls
// is the hysteresis bookkeeping (current emotion, when it last changed,
// how long the rover has been still), all keyed off sample timestamps so
// that identical input streams always produce identical output streams.
type Policy struct {
	dwell time.Duration

	current    Emotion
	changedAt  int64 // sample timestamp ms of the last switch
	stillSince int64 // sample timestamp ms when stillness began, 0 if moving
}

// New returns a policy starting at neutral with the default dwell.
func New() *Policy {
	return NewWithDwell(DefaultDwell)
}

// NewWithDwell returns a policy with a custom minimum dwell between
// emotion switches.
func NewWithDwell(dwell time.Duration) *Policy {
	return &Policy{dwell: dwell, current: EmotionNeutral}
}

// Decide returns the target for one calibrated sample. The low-battery
// override switches immediately; every other transition waits out the
// dwell so noise-level input changes cannot flicker the face.
func (p *Policy) Decide(s telemetry.Sample, confidence float64) Target {
	candidate, intensity := p.classify(s, confidence)

	if candidate != p.current {
		switch {
		case candidate == EmotionFearful:
			// Battery safety does not wait.
			p.current = candidate
			p.changedAt = s.Timestamp
		case s.Timestamp-p.changedAt >= p.dwell.Milliseconds():
			p.current = candidate
			p.changedAt = s.Timestamp
		default:
			// Hold the previous emotion through the dwell.
		}
	}

	return Target{Emotion: p.current, Intensity: intensity}
}

// classify maps sample + confidence to a candidate emotion, tracking in
// stillSince when the current stillness began. Bands, low to high motion:
// sleepy (prolonged stillness), neutral, curious, excited, surprised. A
// critically low battery forces fearful regardless of motion.
func (p *Policy) classify(s telemetry.Sample, confidence float64) (Emotion, float64) {
	if s.VoltageV > 0 && s.VoltageV < LowVoltage {
		return EmotionFearful, 1.0
	}

	mag := s.Magnitude()

	switch {
	case mag < NoiseDeg:
		if p.stillSince == 0 {
			p.stillSince = s.Timestamp
		}
		if s.Timestamp-p.stillSince >= SleepyAfter.Milliseconds() {
			return EmotionSleepy, clamp01(confidence)
		}
		return EmotionNeutral, clamp01(confidence)
	case mag < AlertDeg:
		p.stillSince = 0
		return EmotionCurious, clamp01(confidence * (mag / AlertDeg))
	case mag < StartleDeg:
		p.stillSince = 0
		return EmotionExcited, clamp01(confidence * (mag / StartleDeg))
	default:
		p.stillSince = 0
		return EmotionSurprised, 1.0
	}
}

// Current returns the emotion the policy is holding.
func (p *Policy) Current() Emotion {
	return p.current
}

// Preset returns a full target for a named emotion, for external
// injection (design surfaces, console commands). Presets bypass nothing
// in Decide: they are plain values, not alternate evaluation paths.
func Preset(name string) (Target, bool) {
	for _, e := range Emotions() {
		if string(e) == name {
			return Target{Emotion: e, Intensity: 1.0}, true
		}
	}
	return Target{}, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
