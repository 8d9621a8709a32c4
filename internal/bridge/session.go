package bridge

import (
	"net"
	"sync"
	"time"
)

// session is one connected TCP client. Outbound lines go through a
// buffered queue so a slow socket never blocks the broadcaster.
type session struct {
	conn net.Conn
	out  chan string

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn net.Conn) *session {
	return &session{
		conn: conn,
		out:  make(chan string, sessionQueueLen),
		done: make(chan struct{}),
	}
}

// trySend queues a line without blocking. False means the backlog is full
// and the client should be dropped.
func (s *session) trySend(line string) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.out <- line:
		return true
	default:
		return false
	}
}

// send queues a line, silently discarding it if the backlog is full.
func (s *session) send(line string) {
	s.trySend(line)
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case line := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(SessionWriteTimeout))
			if _, err := s.conn.Write([]byte(line + "\n")); err != nil {
				return
			}
		}
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
