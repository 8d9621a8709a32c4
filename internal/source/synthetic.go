// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/axon-robotics/axon_runtime/internal/rover"
	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// SyntheticSource generates smoothly changing frames without hardware.
// Generated frames travel the same path as serial ones: rendered to a wire
// line, handed to line consumers, then decoded. Speed commands sent to it
// are reflected in the generated wheel-speed fields, so the full command
// round trip can be exercised on a desk.
type SyntheticSource struct {
	feed

	interval  time.Duration
	amplitude float64

	mu      sync.Mutex
	left    float64
	right   float64
	started bool
	stopped bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewSyntheticSource creates a generator emitting one frame per interval.
// Amplitude scales the orientation sweep in degrees.
func NewSyntheticSource(interval time.Duration, amplitude float64) *SyntheticSource {
	return &SyntheticSource{
		feed:      newFeed(telemetry.OriginSynthetic),
		interval:  interval,
		amplitude: amplitude,
		done:      make(chan struct{}),
	}
}

// Start begins frame generation.
func (s *SyntheticSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("synthetic source already started")
	}
	if s.stopped {
		return ErrTransportUnavailable
	}
	s.started = true

	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *SyntheticSource) run() {
	defer s.wg.Done()

	start := time.Now()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.ingest(s.frame(now, now.Sub(start).Seconds()))
		}
	}
}

// frame renders one wire line. The orientation sweep mirrors the mock
// bench source: slow sinusoids on each axis so the downstream smoothing
// is visible.
func (s *SyntheticSource) frame(now time.Time, elapsed float64) string {
	s.mu.Lock()
	left, right := s.left, s.right
	s.mu.Unlock()

	yaw := s.amplitude * math.Sin(elapsed*0.5)
	pitch := s.amplitude * 0.6 * math.Cos(elapsed*0.7)
	roll := s.amplitude * 0.4 * math.Sin(elapsed*1.1)

	return fmt.Sprintf(
		`{"timestamp":%d,"yaw":%.3f,"pitch":%.3f,"roll":%.3f,"left_speed":%.2f,"right_speed":%.2f,"temperature_c":36.5,"voltage_v":11.9,"origin":%q}`,
		now.UnixMilli(), yaw, pitch, roll, left, right, telemetry.OriginSynthetic,
	)
}

// Latest takes the most recently generated sample.
func (s *SyntheticSource) Latest() (telemetry.Sample, bool) {
	return s.take()
}

// SendCommand accepts a command line. Speed commands update the generated
// wheel speeds; everything else is accepted and ignored, like a firmware
// that does not implement the command.
func (s *SyntheticSource) SendCommand(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || !s.started {
		return ErrTransportUnavailable
	}
	if left, right, ok := rover.ParseSpeed(text); ok {
		s.left, s.right = left, right
	}
	return nil
}

// AddLineConsumer registers a raw-line subscriber.
func (s *SyntheticSource) AddLineConsumer(c LineConsumer) {
	s.addConsumer(c)
}

// Stop halts generation. Safe to call more than once.
func (s *SyntheticSource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	close(s.done)
	if started {
		s.wg.Wait()
	}
	return nil
}

var _ Source = (*SyntheticSource)(nil)
