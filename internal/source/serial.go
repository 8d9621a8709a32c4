// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

const commandQueueSize = 32

// SerialSource reads newline-delimited feedback frames from the rover UART
// and writes command lines back on the same port. One goroutine owns the
// read path, one the write path; blocking on the port never reaches the
// tick loop.
type SerialSource struct {
	feed
	opts serial.OpenOptions

	mu      sync.Mutex
	port    io.ReadWriteCloser
	started bool
	stopped bool

	cmds chan string
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSerialSource configures a source for the given port, e.g.
// "/dev/ttyAMA0" at 115200 baud. The port is not opened until Start.
func NewSerialSource(portName string, baudRate uint) *SerialSource {
	return &SerialSource{
		feed: newFeed(telemetry.OriginHardware),
		opts: serial.OpenOptions{
			PortName:        portName,
			BaudRate:        baudRate,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
			ParityMode:      serial.PARITY_NONE,
		},
		cmds: make(chan string, commandQueueSize),
		done: make(chan struct{}),
	}
}

// Start opens the serial port and begins acquisition. An open failure is
// fatal and returned to the caller; everything after that is per-line and
// contained.
func (s *SerialSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("serial source already started")
	}
	if s.stopped {
		return ErrTransportUnavailable
	}

	port, err := serial.Open(s.opts)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.opts.PortName, err)
	}
	s.port = port
	s.started = true

	slog.Info("serial port opened", "port", s.opts.PortName, "baud", s.opts.BaudRate)

	s.wg.Add(2)
	go s.readLoop(port)
	go s.writeLoop(port)
	return nil
}

// readLoop is the acquisition goroutine. It exits when the port is closed
// out from under it by Stop.
func (s *SerialSource) readLoop(port io.Reader) {
	defer s.wg.Done()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		s.ingest(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-s.done:
			// Expected: Stop closed the port mid-read.
		default:
			slog.Error("serial read error", "err", err)
		}
	}
}

func (s *SerialSource) writeLoop(port io.Writer) {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.cmds:
			if _, err := io.WriteString(port, cmd+"\n"); err != nil {
				slog.Warn("serial write error", "err", err, "cmd", cmd)
			}
		}
	}
}

// Latest takes the most recently decoded sample.
func (s *SerialSource) Latest() (telemetry.Sample, bool) {
	return s.take()
}

// SendCommand queues one command line for the firmware. Queued commands
// are written in order by the write goroutine; a full queue fails fast
// rather than blocking the caller.
func (s *SerialSource) SendCommand(text string) error {
	s.mu.Lock()
	closed := s.stopped || !s.started
	s.mu.Unlock()
	if closed {
		return ErrTransportUnavailable
	}

	select {
	case s.cmds <- text:
		return nil
	default:
		return ErrCommandBacklog
	}
}

// AddLineConsumer registers a raw-line subscriber.
func (s *SerialSource) AddLineConsumer(c LineConsumer) {
	s.addConsumer(c)
}

// Stop halts acquisition and closes the port. Closing the port unblocks a
// read in progress, so Stop returns promptly. Safe to call more than once.
func (s *SerialSource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	port := s.port
	started := s.started
	s.mu.Unlock()

	close(s.done)
	var err error
	if port != nil {
		err = port.Close()
	}
	if started {
		s.wg.Wait()
	}
	return err
}

var _ Source = (*SerialSource)(nil)
