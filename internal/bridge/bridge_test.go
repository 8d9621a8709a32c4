package bridge

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/axon-robotics/axon_runtime/internal/face"
	"github.com/axon-robotics/axon_runtime/internal/policy"
	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

type recordingSink struct {
	lines []string
	err   error
}

func (r *recordingSink) SendCommand(line string) error {
	if r.err != nil {
		return r.err
	}
	r.lines = append(r.lines, line)
	return nil
}

func startBridge(t *testing.T, sink CommandSink) *Bridge {
	t.Helper()
	b := New(sink, nil)
	if err := b.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func dial(t *testing.T, b *Bridge) (net.Conn, *bufio.Scanner) {
	t.Helper()
	conn, err := net.Dial("tcp", b.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewScanner(conn)
}

func waitClients(t *testing.T, b *Bridge, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", b.ClientCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func readLine(t *testing.T, conn net.Conn, sc *bufio.Scanner) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if !sc.Scan() {
		t.Fatalf("read line: %v", sc.Err())
	}
	return sc.Text()
}

func TestBroadcastReachesAllClients(t *testing.T) {
	b := startBridge(t, &recordingSink{})

	c1, sc1 := dial(t, b)
	c2, sc2 := dial(t, b)
	c3, sc3 := dial(t, b)
	waitClients(t, b, 3)

	b.PublishSample(telemetry.Sample{Timestamp: 42, Yaw: 1.5})

	for _, tc := range []struct {
		conn net.Conn
		sc   *bufio.Scanner
	}{{c1, sc1}, {c2, sc2}, {c3, sc3}} {
		line := readLine(t, tc.conn, tc.sc)
		if !strings.HasPrefix(line, "telemetry ") {
			t.Fatalf("line = %q, want telemetry prefix", line)
		}
		if !strings.Contains(line, `"timestamp":42`) {
			t.Fatalf("line %q missing sample payload", line)
		}
	}
}

func TestRawLinePassthrough(t *testing.T) {
	b := startBridge(t, &recordingSink{})
	conn, sc := dial(t, b)
	waitClients(t, b, 1)

	raw := `{"timestamp":7,"yaw":0.1,"pitch":0,"roll":0,"origin":"hardware"}`
	b.OnLine(raw)

	if got := readLine(t, conn, sc); got != raw {
		t.Fatalf("raw line = %q, want %q", got, raw)
	}
}

func TestPosePublished(t *testing.T) {
	b := startBridge(t, &recordingSink{})
	conn, sc := dial(t, b)
	waitClients(t, b, 1)

	b.PublishPose(face.Pose{Emotion: policy.EmotionHappy, EyeOpenness: 1.2})

	line := readLine(t, conn, sc)
	if !strings.HasPrefix(line, "pose ") {
		t.Fatalf("line = %q, want pose prefix", line)
	}
	if !strings.Contains(line, `"emotion":"happy"`) {
		t.Fatalf("pose line %q missing emotion", line)
	}
}

func TestCommandRelayAcksOriginatorOnly(t *testing.T) {
	sink := &recordingSink{}
	b := startBridge(t, sink)

	sender, senderSC := dial(t, b)
	other, otherSC := dial(t, b)
	waitClients(t, b, 2)

	cmd := `{"T":1,"L":0.25,"R":0.25}`
	if _, err := sender.Write([]byte(cmd + "\n")); err != nil {
		t.Fatalf("write command: %v", err)
	}

	if got := readLine(t, sender, senderSC); got != "ok "+cmd {
		t.Fatalf("ack = %q, want %q", got, "ok "+cmd)
	}

	// The other client must not see the ack; the next broadcast should be
	// the first thing it reads.
	b.PublishStreaming(true)
	if got := readLine(t, other, otherSC); got != "streaming true" {
		t.Fatalf("other client read %q, want streaming marker", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.lines) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(sink.lines) != 1 || sink.lines[0] != cmd {
		t.Fatalf("sink received %v, want [%q]", sink.lines, cmd)
	}
}

func TestCommandFailureReportedToClient(t *testing.T) {
	b := startBridge(t, &recordingSink{err: errors.New("transport unavailable")})
	conn, sc := dial(t, b)
	waitClients(t, b, 1)

	if _, err := conn.Write([]byte("{\"T\":126}\n")); err != nil {
		t.Fatalf("write command: %v", err)
	}
	if got := readLine(t, conn, sc); got != "err transport unavailable" {
		t.Fatalf("reply = %q, want err line", got)
	}
}

func TestDisconnectDoesNotAffectOthers(t *testing.T) {
	b := startBridge(t, &recordingSink{})

	gone, _ := dial(t, b)
	stay, staySC := dial(t, b)
	waitClients(t, b, 2)

	gone.Close()
	waitClients(t, b, 1)

	b.PublishSample(telemetry.Sample{Timestamp: 9})
	line := readLine(t, stay, staySC)
	if !strings.Contains(line, `"timestamp":9`) {
		t.Fatalf("survivor read %q, want broadcast", line)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New(&recordingSink{}, nil)
	if err := b.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestCloseDisconnectsClients(t *testing.T) {
	b := New(&recordingSink{}, nil)
	if err := b.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	conn, sc := dial(t, b)
	waitClients(t, b, 1)

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if sc.Scan() {
		t.Fatalf("expected EOF after close, read %q", sc.Text())
	}
}
