// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package runtime drives the fixed-rate pipeline: pull the freshest
// sample, calibrate it, decide an emotion, blend a pose and publish the
// results to every attached publisher.
package runtime

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/axon-robotics/axon_runtime/internal/calibration"
	"github.com/axon-robotics/axon_runtime/internal/face"
	"github.com/axon-robotics/axon_runtime/internal/policy"
	"github.com/axon-robotics/axon_runtime/internal/source"
	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// DefaultTickInterval is the pipeline cadence.
const DefaultTickInterval = 40 * time.Millisecond

// StaleAfterMissedTicks is how many consecutive empty ticks mark the
// stream as stale.
const StaleAfterMissedTicks = 10

// Publisher receives the pipeline output each tick. Implementations must
// not block; the loop shares one goroutine across all publishers.
type Publisher interface {
	PublishSample(telemetry.Sample)
	PublishPose(face.Pose)
	PublishStreaming(live bool)
}

// Loop owns the tick goroutine and the pipeline stages.
type Loop struct {
	src      source.Source
	cal      *calibration.Calibrator
	pol      *policy.Policy
	interval time.Duration
	log      *slog.Logger

	publishers []Publisher
	closers    []io.Closer

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval overrides the tick cadence.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithPublisher attaches a pipeline output. May be given multiple times.
func WithPublisher(p Publisher) Option {
	return func(l *Loop) { l.publishers = append(l.publishers, p) }
}

// WithCloser registers a resource to close during Stop, after the source.
func WithCloser(c io.Closer) Option {
	return func(l *Loop) { l.closers = append(l.closers, c) }
}

// WithLogger overrides the loop's logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// New wires a loop around a source, calibrator and policy.
func New(src source.Source, cal *calibration.Calibrator, pol *policy.Policy, opts ...Option) *Loop {
	l := &Loop{
		src:      src,
		cal:      cal,
		pol:      pol,
		interval: DefaultTickInterval,
		log:      slog.Default(),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the source and the tick goroutine. Start is idempotent
// while running; restarting a stopped loop is an error. If the source
// fails to open, registered closers are closed before returning.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}
	if l.stopped {
		return errors.New("runtime: already stopped")
	}
	if err := l.src.Start(); err != nil {
		for _, c := range l.closers {
			c.Close()
		}
		return err
	}
	l.started = true

	l.wg.Add(1)
	go l.run()
	return nil
}

func (l *Loop) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	missed := 0
	live := false

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}

		s, ok := l.src.Latest()
		if !ok {
			missed++
			// The threshold applies from the first tick: a source that
			// never delivers is announced stale, same as one that dies.
			if missed == StaleAfterMissedTicks {
				live = false
				l.log.Warn("telemetry stream stale", "missed_ticks", missed)
				for _, p := range l.publishers {
					p.PublishStreaming(false)
				}
			}
			continue
		}
		missed = 0
		if !live {
			live = true
			l.log.Info("telemetry stream live", "origin", s.Origin)
			for _, p := range l.publishers {
				p.PublishStreaming(true)
			}
		}

		l.tick(s)
	}
}

// tick runs one pipeline pass over a fresh sample.
func (l *Loop) tick(s telemetry.Sample) {
	calibrated := l.cal.Apply(s)
	target := l.pol.Decide(calibrated, l.cal.Confidence())
	pose := face.Blend(calibrated, target)

	for _, p := range l.publishers {
		p.PublishSample(calibrated)
		p.PublishPose(pose)
	}
}

// Stop halts the tick goroutine, stops the source and closes every
// registered closer. All stages run even when one fails.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.started || l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	close(l.stop)
	l.mu.Unlock()

	l.wg.Wait()

	errs := []error{l.src.Stop()}
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
