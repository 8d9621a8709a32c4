package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SerialPort != "/dev/ttyAMA0" {
		t.Errorf("SerialPort = %q", cfg.SerialPort)
	}
	if cfg.BaudRate != 115200 {
		t.Errorf("BaudRate = %d", cfg.BaudRate)
	}
	if cfg.BridgeAddr != ":8765" {
		t.Errorf("BridgeAddr = %q", cfg.BridgeAddr)
	}
	if cfg.TickInterval != 40*time.Millisecond {
		t.Errorf("TickInterval = %v", cfg.TickInterval)
	}
	if cfg.CalibrationWindow != 2*time.Second {
		t.Errorf("CalibrationWindow = %v", cfg.CalibrationWindow)
	}
	if cfg.CalibrationStillThreshold != 3.0 {
		t.Errorf("CalibrationStillThreshold = %v", cfg.CalibrationStillThreshold)
	}
	if cfg.EmotionDwell != 500*time.Millisecond {
		t.Errorf("EmotionDwell = %v", cfg.EmotionDwell)
	}
	if cfg.MQTTBroker != "" {
		t.Errorf("MQTTBroker should default to disabled, got %q", cfg.MQTTBroker)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERIAL_PORT", "/dev/ttyUSB3")
	t.Setenv("TICK_INTERVAL_MS", "25")
	t.Setenv("CALIBRATION_STILL_THRESHOLD", "1.5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SerialPort != "/dev/ttyUSB3" {
		t.Errorf("SerialPort = %q", cfg.SerialPort)
	}
	if cfg.TickInterval != 25*time.Millisecond {
		t.Errorf("TickInterval = %v", cfg.TickInterval)
	}
	if cfg.CalibrationStillThreshold != 1.5 {
		t.Errorf("CalibrationStillThreshold = %v", cfg.CalibrationStillThreshold)
	}
}

func TestLoadDotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.env")
	content := "BRIDGE_ADDR=:9001\nEMOTION_DWELL_MS=750\nMQTT_BROKER=tcp://localhost:1883\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("BRIDGE_ADDR")
		os.Unsetenv("EMOTION_DWELL_MS")
		os.Unsetenv("MQTT_BROKER")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BridgeAddr != ":9001" {
		t.Errorf("BridgeAddr = %q", cfg.BridgeAddr)
	}
	if cfg.EmotionDwell != 750*time.Millisecond {
		t.Errorf("EmotionDwell = %v", cfg.EmotionDwell)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("MQTTBroker = %q", cfg.MQTTBroker)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("load with missing file: %v", err)
	}
	if cfg.SerialPort != "/dev/ttyAMA0" {
		t.Errorf("SerialPort = %q", cfg.SerialPort)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "-5")
	if _, err := Load(""); err == nil {
		t.Fatal("negative tick interval should fail validation")
	}
}

func TestMalformedNumberFallsBack(t *testing.T) {
	t.Setenv("BAUD_RATE", "fast")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want default", cfg.BaudRate)
	}
}
