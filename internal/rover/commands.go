// Package rover builds command frames for the Wave Rover serial protocol.
// Commands are single-line JSON objects keyed by a numeric "T" type field,
// e.g. {"T":1,"L":0.3,"R":0.3} for chassis speed.
package rover

import (
	"encoding/json"
	"fmt"
)

// Command types understood by the rover firmware.
const (
	TypeSpeed              = 1
	TypeOLEDText           = 3
	TypeOLEDRestore        = -3
	TypePWM                = 11
	TypeIMUQuery           = 126
	TypeBaseFeedback       = 130
	TypeContinuousFeedback = 131
	TypeIOPWM              = 132
	TypeSerialEcho         = 143
)

// Speed builds a chassis speed command. Left/right are wheel speeds in the
// firmware's -0.5..0.5 range; values outside are passed through unchanged,
// the firmware clamps on its side.
func Speed(left, right float64) string {
	return fmt.Sprintf(`{"T":%d,"L":%s,"R":%s}`, TypeSpeed, trim(left), trim(right))
}

// PWM builds a raw motor PWM command (-255..255 per side).
func PWM(left, right int) string {
	return fmt.Sprintf(`{"T":%d,"L":%d,"R":%d}`, TypePWM, left, right)
}

// OLEDText builds a command printing text on one OLED line (0-3).
func OLEDText(line int, text string) string {
	payload, _ := json.Marshal(struct {
		T       int    `json:"T"`
		LineNum int    `json:"lineNum"`
		Text    string `json:"Text"`
	}{TypeOLEDText, line, text})
	return string(payload)
}

// OLEDRestore builds the command returning the OLED to its default screen.
func OLEDRestore() string {
	return fmt.Sprintf(`{"T":%d}`, TypeOLEDRestore)
}

// IMUQuery builds a one-shot IMU readout request.
func IMUQuery() string {
	return fmt.Sprintf(`{"T":%d}`, TypeIMUQuery)
}

// ContinuousFeedback toggles the firmware's periodic feedback stream. The
// runtime enables it at startup so the sample stream flows without polling.
func ContinuousFeedback(on bool) string {
	return fmt.Sprintf(`{"T":%d,"cmd":%d}`, TypeContinuousFeedback, boolCmd(on))
}

// SerialEcho toggles command echo on the firmware UART.
func SerialEcho(on bool) string {
	return fmt.Sprintf(`{"T":%d,"cmd":%d}`, TypeSerialEcho, boolCmd(on))
}

// ParseSpeed extracts left/right speeds from a command line if it is a
// chassis speed command. The synthetic source uses this to react to
// commands the way the real firmware would.
func ParseSpeed(line string) (left, right float64, ok bool) {
	var cmd struct {
		T int     `json:"T"`
		L float64 `json:"L"`
		R float64 `json:"R"`
	}
	if err := json.Unmarshal([]byte(line), &cmd); err != nil {
		return 0, 0, false
	}
	if cmd.T != TypeSpeed {
		return 0, 0, false
	}
	return cmd.L, cmd.R, true
}

func boolCmd(on bool) int {
	if on {
		return 1
	}
	return 0
}

// trim renders a float the way the firmware examples do: short, no
// exponent notation.
func trim(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
