package telemetry

import (
	"errors"
	"math"
	"testing"
)

func TestDecoder_GoodFrame(t *testing.T) {
	d := NewDecoder(OriginHardware)

	s, err := d.Decode(`{"timestamp":1700000000000,"yaw":1.5,"pitch":-0.5,"roll":0.25,"voltage_v":11.7,"origin":"hardware"}`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if s.Yaw != 1.5 || s.Pitch != -0.5 || s.Roll != 0.25 {
		t.Errorf("orientation = (%v, %v, %v), want (1.5, -0.5, 0.25)", s.Yaw, s.Pitch, s.Roll)
	}
	if s.Timestamp != 1700000000000 {
		t.Errorf("Timestamp = %d, want 1700000000000", s.Timestamp)
	}
	if s.VoltageV != 11.7 {
		t.Errorf("VoltageV = %v, want 11.7", s.VoltageV)
	}
	if s.Origin != OriginHardware {
		t.Errorf("Origin = %q, want %q", s.Origin, OriginHardware)
	}
	if s.Calibrated {
		t.Error("raw sample must not be marked calibrated")
	}
}

func TestDecoder_MissingTimestampIsFilledIn(t *testing.T) {
	d := NewDecoder(OriginHardware)

	s, err := d.Decode(`{"yaw":0,"pitch":0,"roll":0}`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if s.Timestamp == 0 {
		t.Error("Timestamp should default to decode time")
	}
}

func TestDecoder_UnknownFieldsIgnored(t *testing.T) {
	d := NewDecoder(OriginHardware)

	if _, err := d.Decode(`{"yaw":1,"pitch":2,"roll":3,"fw_build":"2.1.9","odo":42}`); err != nil {
		t.Fatalf("frame with unknown fields should decode: %v", err)
	}
}

func TestDecoder_RejectsMalformed(t *testing.T) {
	d := NewDecoder(OriginHardware)

	cases := []struct {
		name string
		line string
	}{
		{"truncated json", `{"yaw":1.0,"pitch":`},
		{"missing axes", `{"yaw":1.0,"origin":"hardware"}`},
		{"not json", `READY v2.1.9`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := d.Decode(tc.line); err == nil {
				t.Errorf("Decode(%q) should fail", tc.line)
			}
		})
	}
}

func TestDecoder_RejectsNonFinite(t *testing.T) {
	d := NewDecoder(OriginHardware)

	if _, err := d.Decode(`{"yaw":1e999,"pitch":0,"roll":0}`); err == nil {
		t.Error("frame with infinite yaw should fail")
	}
}

func TestDecoder_ForeignOrigin(t *testing.T) {
	d := NewDecoder(OriginHardware)

	_, err := d.Decode(`{"yaw":1,"pitch":2,"roll":3,"origin":"synthetic"}`)
	if !errors.Is(err, ErrForeignOrigin) {
		t.Errorf("err = %v, want ErrForeignOrigin", err)
	}
}

func TestDecoder_MissingOriginInheritsMode(t *testing.T) {
	d := NewDecoder(OriginSynthetic)

	s, err := d.Decode(`{"yaw":1,"pitch":2,"roll":3}`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if s.Origin != OriginSynthetic {
		t.Errorf("Origin = %q, want %q", s.Origin, OriginSynthetic)
	}
}

func TestDecoder_BlankLine(t *testing.T) {
	d := NewDecoder(OriginHardware)

	if _, err := d.Decode("   "); !errors.Is(err, ErrNoSample) {
		t.Errorf("err = %v, want ErrNoSample", err)
	}
}

func TestDecoder_NMEAFoldsIntoNextSample(t *testing.T) {
	d := NewDecoder(OriginHardware)

	// Valid RMC sentence: 22.4 knots over ground, course 84.4 degrees.
	_, err := d.Decode("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	if !errors.Is(err, ErrNoSample) {
		t.Fatalf("NMEA line: err = %v, want ErrNoSample", err)
	}

	s, err := d.Decode(`{"yaw":1,"pitch":0,"roll":0}`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if math.Abs(s.SpeedKn-22.4) > 0.01 {
		t.Errorf("SpeedKn = %v, want 22.4", s.SpeedKn)
	}
	if math.Abs(s.CourseDeg-84.4) > 0.01 {
		t.Errorf("CourseDeg = %v, want 84.4", s.CourseDeg)
	}
}

func TestDecoder_GarbageNMEAIgnored(t *testing.T) {
	d := NewDecoder(OriginHardware)

	if _, err := d.Decode("$GPRMC,garbled"); !errors.Is(err, ErrNoSample) {
		t.Errorf("garbled NMEA: err = %v, want ErrNoSample", err)
	}

	s, err := d.Decode(`{"yaw":1,"pitch":0,"roll":0}`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if s.SpeedKn != 0 {
		t.Errorf("SpeedKn = %v, want 0 (no fix seen)", s.SpeedKn)
	}
}

func TestSample_Magnitude(t *testing.T) {
	s := Sample{Yaw: 1.0, Pitch: -3.5, Roll: 2.0}
	if got := s.Magnitude(); got != 3.5 {
		t.Errorf("Magnitude() = %v, want 3.5", got)
	}
}
