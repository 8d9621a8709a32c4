// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bridge exposes the runtime over a plain TCP line protocol.
// Every connected client receives the telemetry and pose stream; lines a
// client writes are relayed to the command sink, with the outcome echoed
// back to that client only.
package bridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/axon-robotics/axon_runtime/internal/face"
	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// SessionWriteTimeout bounds a single write to a client socket. A client
// that cannot drain within it is dropped rather than stalling the rest.
const SessionWriteTimeout = 2 * time.Second

// sessionQueueLen is the per-client backlog before the client counts as
// too slow and is disconnected.
const sessionQueueLen = 64

// CommandSink receives raw command lines relayed from clients.
type CommandSink interface {
	SendCommand(line string) error
}

// Bridge accepts TCP clients and fans the telemetry stream out to them.
type Bridge struct {
	sink CommandSink
	log  *slog.Logger

	mu       sync.Mutex
	ln       net.Listener
	sessions map[*session]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// New returns a bridge that relays client commands into sink. sink may be
// nil, in which case commands are rejected.
func New(sink CommandSink, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		sink:     sink,
		log:      log,
		sessions: make(map[*session]struct{}),
	}
}

// Listen binds addr and starts accepting clients until Close.
func (b *Bridge) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bridge listen %s: %w", addr, err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		ln.Close()
		return fmt.Errorf("bridge listen %s: already closed", addr)
	}
	b.ln = ln
	b.mu.Unlock()

	b.log.Info("bridge listening", "addr", ln.Addr().String())

	b.wg.Add(1)
	go b.acceptLoop(ln)
	return nil
}

// Addr returns the bound listener address, or empty before Listen.
func (b *Bridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ln == nil {
		return ""
	}
	return b.ln.Addr().String()
}

func (b *Bridge) acceptLoop(ln net.Listener) {
	defer b.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			b.mu.Lock()
			closed := b.closed
			b.mu.Unlock()
			if !closed {
				b.log.Error("bridge accept failed", "error", err)
			}
			return
		}
		b.addSession(conn)
	}
}

func (b *Bridge) addSession(conn net.Conn) {
	s := newSession(conn)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return
	}
	b.sessions[s] = struct{}{}
	n := len(b.sessions)
	b.mu.Unlock()

	b.log.Info("client connected", "remote", conn.RemoteAddr().String(), "clients", n)

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		s.writeLoop()
		b.dropSession(s, "write")
	}()
	go func() {
		defer b.wg.Done()
		b.readLoop(s)
		b.dropSession(s, "read")
	}()
}

// readLoop relays incoming lines to the command sink and acknowledges
// each one on the originating session.
func (b *Bridge) readLoop(s *session) {
	sc := bufio.NewScanner(s.conn)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if b.sink == nil {
			s.send("err no command sink")
			continue
		}
		if err := b.sink.SendCommand(line); err != nil {
			b.log.Warn("command relay failed", "error", err)
			s.send("err " + err.Error())
			continue
		}
		s.send("ok " + line)
	}
}

func (b *Bridge) dropSession(s *session, by string) {
	b.mu.Lock()
	_, present := b.sessions[s]
	delete(b.sessions, s)
	n := len(b.sessions)
	b.mu.Unlock()

	s.close()
	if present {
		b.log.Info("client disconnected",
			"remote", s.conn.RemoteAddr().String(), "by", by, "clients", n)
	}
}

// broadcast queues a line on every session, dropping clients whose
// backlog is full.
func (b *Bridge) broadcast(line string) {
	b.mu.Lock()
	stale := make([]*session, 0)
	for s := range b.sessions {
		if !s.trySend(line) {
			stale = append(stale, s)
		}
	}
	b.mu.Unlock()

	for _, s := range stale {
		b.log.Warn("dropping slow client", "remote", s.conn.RemoteAddr().String())
		b.dropSession(s, "backlog")
	}
}

// OnLine forwards a raw transport line to all clients. It satisfies the
// source line consumer shape, so the bridge can mirror the sensor wire
// verbatim.
func (b *Bridge) OnLine(line string) {
	b.broadcast(line)
}

// PublishSample sends a decoded sample to all clients as a
// "telemetry {json}" line.
func (b *Bridge) PublishSample(s telemetry.Sample) {
	raw, err := json.Marshal(s)
	if err != nil {
		b.log.Error("sample marshal failed", "error", err)
		return
	}
	b.broadcast("telemetry " + string(raw))
}

// PublishPose sends a face pose to all clients as a "pose {json}" line.
func (b *Bridge) PublishPose(p face.Pose) {
	raw, err := json.Marshal(p)
	if err != nil {
		b.log.Error("pose marshal failed", "error", err)
		return
	}
	b.broadcast("pose " + string(raw))
}

// PublishStreaming announces a change of the live/stale streaming state.
func (b *Bridge) PublishStreaming(live bool) {
	b.broadcast(fmt.Sprintf("streaming %t", live))
}

// ClientCount reports the number of connected sessions.
func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Close stops accepting, disconnects all clients and waits for the
// session goroutines to finish.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	ln := b.ln
	open := make([]*session, 0, len(b.sessions))
	for s := range b.sessions {
		open = append(open, s)
	}
	b.sessions = make(map[*session]struct{})
	b.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, s := range open {
		s.close()
	}
	b.wg.Wait()
	return err
}
