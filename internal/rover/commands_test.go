package rover

import (
	"encoding/json"
	"testing"
)

func TestSpeed_WireShape(t *testing.T) {
	line := Speed(0.3, -0.2)

	var cmd map[string]any
	if err := json.Unmarshal([]byte(line), &cmd); err != nil {
		t.Fatalf("Speed produced invalid JSON %q: %v", line, err)
	}
	if cmd["T"] != float64(TypeSpeed) {
		t.Errorf("T = %v, want %d", cmd["T"], TypeSpeed)
	}
	if cmd["L"] != 0.3 || cmd["R"] != -0.2 {
		t.Errorf("L/R = %v/%v, want 0.3/-0.2", cmd["L"], cmd["R"])
	}
}

func TestParseSpeed_RoundTrip(t *testing.T) {
	l, r, ok := ParseSpeed(Speed(0.25, -0.25))
	if !ok {
		t.Fatal("ParseSpeed rejected a speed command")
	}
	if l != 0.25 || r != -0.25 {
		t.Errorf("ParseSpeed = %v/%v, want 0.25/-0.25", l, r)
	}
}

func TestParseSpeed_RejectsOtherCommands(t *testing.T) {
	for _, line := range []string{IMUQuery(), OLEDRestore(), ContinuousFeedback(true), "not json"} {
		if _, _, ok := ParseSpeed(line); ok {
			t.Errorf("ParseSpeed(%q) should not match", line)
		}
	}
}

func TestOLEDText(t *testing.T) {
	line := OLEDText(2, `hello "rover"`)

	var cmd struct {
		T       int    `json:"T"`
		LineNum int    `json:"lineNum"`
		Text    string `json:"Text"`
	}
	if err := json.Unmarshal([]byte(line), &cmd); err != nil {
		t.Fatalf("OLEDText produced invalid JSON %q: %v", line, err)
	}
	if cmd.T != TypeOLEDText || cmd.LineNum != 2 || cmd.Text != `hello "rover"` {
		t.Errorf("unexpected command %+v", cmd)
	}
}

func TestToggleCommands(t *testing.T) {
	if got := ContinuousFeedback(true); got != `{"T":131,"cmd":1}` {
		t.Errorf("ContinuousFeedback(true) = %q", got)
	}
	if got := ContinuousFeedback(false); got != `{"T":131,"cmd":0}` {
		t.Errorf("ContinuousFeedback(false) = %q", got)
	}
	if got := SerialEcho(true); got != `{"T":143,"cmd":1}` {
		t.Errorf("SerialEcho(true) = %q", got)
	}
}
