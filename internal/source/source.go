// Package source provides sample acquisition for the runtime: a serial
// reader for the rover UART and a synthetic generator for bench work.
// Later a replay source from recorded logs could join them.
package source

import (
	"errors"

	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

var (
	// ErrTransportUnavailable is returned by SendCommand once the source
	// has been stopped or before it has been started.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrCommandBacklog is returned when the outbound command queue is
	// full; the transport is alive but not draining fast enough.
	ErrCommandBacklog = errors.New("command queue full")
)

// LineConsumer receives every raw line the source reads, including lines
// that fail to decode into a Sample. Consumers must not block: the call is
// made from the acquisition goroutine.
type LineConsumer interface {
	OnLine(line string)
}

// Source produces timestamped sensor samples from some transport.
type Source interface {
	// Start begins background acquisition. A transport that cannot be
	// opened is fatal and surfaces here.
	Start() error

	// Latest takes the most recent decoded sample, or reports false when
	// none has arrived since the last take. Never blocks; samples that
	// arrive between takes are overwritten, newest wins.
	Latest() (telemetry.Sample, bool)

	// SendCommand queues one command line for the transport.
	SendCommand(text string) error

	// AddLineConsumer registers a raw-line subscriber. Register before
	// Start; the set is fixed once acquisition begins.
	AddLineConsumer(c LineConsumer)

	// Stop halts acquisition and releases the transport. Idempotent.
	Stop() error
}
