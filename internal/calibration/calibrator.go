// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration learns per-axis orientation bias while the rover sits
// still, then subtracts it from every subsequent sample.
package calibration

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// Defaults for the stillness window. The rover firmware streams feedback at
// roughly 25 Hz, so two seconds gives ~50 samples to average over.
const (
	DefaultWindow         = 2 * time.Second
	DefaultStillThreshold = 3.0 // degrees, mean per-axis magnitude over the window
	DefaultMinSamples     = 25

	// Confidence mapping: window stddev at or below good scores 1.0,
	// at or above bad scores the floor, linear in between.
	stillStdGood    = 3.0
	stillStdBad     = 12.0
	confidenceFloor = 0.05
)

type axes [3]float64

// Calibrator is a stateful filter with two states: Uncalibrated, where
// Apply passes samples through untouched while the stillness window fills,
// and Calibrated, where Apply subtracts the learned per-axis offset.
// All methods are safe for concurrent use; Reset may race Apply freely.
type Calibrator struct {
	window     time.Duration
	threshold  float64
	minSamples int

	mu         sync.Mutex
	hist       []telemetry.Sample
	offset     axes
	calibrated bool
}

// Option tweaks a Calibrator at construction.
type Option func(*Calibrator)

// WithWindow sets the stillness window duration.
func WithWindow(d time.Duration) Option {
	return func(c *Calibrator) { c.window = d }
}

// WithStillThreshold sets the mean-magnitude threshold in degrees below
// which the window counts as still.
func WithStillThreshold(deg float64) Option {
	return func(c *Calibrator) { c.threshold = deg }
}

// WithMinSamples sets the minimum number of samples the window must hold
// before calibration may trigger.
func WithMinSamples(n int) Option {
	return func(c *Calibrator) { c.minSamples = n }
}

// New returns an uncalibrated Calibrator with the default window.
func New(opts ...Option) *Calibrator {
	c := &Calibrator{
		window:     DefaultWindow,
		threshold:  DefaultStillThreshold,
		minSamples: DefaultMinSamples,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply feeds one sample through the filter. While uncalibrated the input
// is returned unchanged so raw values stay visible before a baseline
// exists; once calibrated, a copy with offsets subtracted is returned.
func (c *Calibrator) Apply(s telemetry.Sample) telemetry.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The raw window is kept in both states: it drives the stillness
	// predicate before calibration and the confidence score after.
	c.hist = append(c.hist, s)
	c.prune(s.Timestamp)

	if !c.calibrated {
		c.maybeCalibrate()
		return s
	}

	out := s
	out.Yaw -= c.offset[0]
	out.Pitch -= c.offset[1]
	out.Roll -= c.offset[2]
	out.Calibrated = true
	return out
}

// maybeCalibrate transitions to Calibrated when the window is full and
// still. Caller holds c.mu.
func (c *Calibrator) maybeCalibrate() {
	if len(c.hist) < c.minSamples {
		return
	}
	span := c.hist[len(c.hist)-1].Timestamp - c.hist[0].Timestamp
	if span < c.window.Milliseconds() {
		return
	}

	// Stillness is judged on the mean raw magnitude over the window, so
	// one outlier cannot reset an otherwise still window, but symmetric
	// oscillation does not average itself into "steady" either.
	var magSum float64
	for _, h := range c.hist {
		magSum += h.Magnitude()
	}
	if magSum/float64(len(c.hist)) >= c.threshold {
		return
	}

	c.offset = c.windowMean()
	c.calibrated = true
	slog.Info("calibration locked",
		"yaw_offset", c.offset[0], "pitch_offset", c.offset[1], "roll_offset", c.offset[2])
}

// prune drops history older than the window, keeping it bounded.
func (c *Calibrator) prune(nowMS int64) {
	cutoff := nowMS - c.window.Milliseconds() - int64(c.window.Milliseconds()/4)
	i := 0
	for i < len(c.hist) && c.hist[i].Timestamp < cutoff {
		i++
	}
	if i > 0 {
		c.hist = append(c.hist[:0], c.hist[i:]...)
	}
}

func (c *Calibrator) windowMean() axes {
	var sum axes
	for _, h := range c.hist {
		sum[0] += h.Yaw
		sum[1] += h.Pitch
		sum[2] += h.Roll
	}
	n := float64(len(c.hist))
	return axes{sum[0] / n, sum[1] / n, sum[2] / n}
}

// Calibrated reports whether an offset has been learned.
func (c *Calibrator) Calibrated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calibrated
}

// Offset returns the learned per-axis offset. Zero until calibrated.
func (c *Calibrator) Offset() (yaw, pitch, roll float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset[0], c.offset[1], c.offset[2]
}

// Confidence scores how trustworthy the current baseline is, in [0,1].
// Uses the stddev of the recent window mapped between a good and a bad
// threshold. Before calibration the score is the floor.
func (c *Calibrator) Confidence() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.calibrated && len(c.hist) < 2 {
		return confidenceFloor
	}

	std := c.windowStdDev()
	switch {
	case !c.calibrated:
		// Scale the stillness score down until a baseline exists.
		return 0.5 * stillScore(std)
	default:
		return stillScore(std)
	}
}

func stillScore(std float64) float64 {
	switch {
	case std <= stillStdGood:
		return 1.0
	case std >= stillStdBad:
		return confidenceFloor
	default:
		t := (std - stillStdGood) / (stillStdBad - stillStdGood)
		return math.Max(confidenceFloor, 1.0-0.95*t)
	}
}

// windowStdDev returns the stddev of per-sample magnitudes over the
// retained history, averaged across what the window has seen. Caller
// holds c.mu.
func (c *Calibrator) windowStdDev() float64 {
	if len(c.hist) < 2 {
		return 0
	}
	var sum float64
	for _, h := range c.hist {
		sum += h.Magnitude()
	}
	mean := sum / float64(len(c.hist))

	var sq float64
	for _, h := range c.hist {
		d := h.Magnitude() - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(c.hist)-1))
}

// Reset clears the baseline and returns to Uncalibrated, e.g. after a
// source mode change. Safe to call while Apply is running.
func (c *Calibrator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hist = nil
	c.offset = axes{}
	c.calibrated = false
}
