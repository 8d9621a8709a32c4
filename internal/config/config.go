// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads runtime settings from the environment, optionally
// seeded from a dotenv file. Every value has a working default so the
// binaries run on a bare Raspberry Pi with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values.
type Config struct {
	// Sensor transport
	SerialPort string
	BaudRate   uint

	// Bridge
	BridgeAddr string

	// Pipeline timing
	TickInterval time.Duration

	// Calibration
	CalibrationWindow         time.Duration
	CalibrationStillThreshold float64
	CalibrationMinSamples     int

	// Emotion policy
	EmotionDwell time.Duration

	// MQTT (optional; empty broker disables publishing)
	MQTTBroker      string
	MQTTClientID    string
	TopicTelemetry  string
	TopicPose       string

	// Web console
	WebAddr string

	// Simulator
	SimInterval  time.Duration
	SimAmplitude float64

	LogLevel string
}

// Load reads an optional dotenv file and resolves the configuration from
// the environment. A missing file is not an error; explicit environment
// variables always win over file values.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	}

	cfg := &Config{
		SerialPort:                getEnv("SERIAL_PORT", "/dev/ttyAMA0"),
		BaudRate:                  uint(getEnvInt("BAUD_RATE", 115200)),
		BridgeAddr:                getEnv("BRIDGE_ADDR", ":8765"),
		TickInterval:              getEnvMillis("TICK_INTERVAL_MS", 40),
		CalibrationWindow:         getEnvMillis("CALIBRATION_WINDOW_MS", 2000),
		CalibrationStillThreshold: getEnvFloat("CALIBRATION_STILL_THRESHOLD", 3.0),
		CalibrationMinSamples:     getEnvInt("CALIBRATION_MIN_SAMPLES", 25),
		EmotionDwell:              getEnvMillis("EMOTION_DWELL_MS", 500),
		MQTTBroker:                getEnv("MQTT_BROKER", ""),
		MQTTClientID:              getEnv("MQTT_CLIENT_ID", "axon-runtime"),
		TopicTelemetry:            getEnv("TOPIC_TELEMETRY", "axon/telemetry"),
		TopicPose:                 getEnv("TOPIC_POSE", "axon/pose"),
		WebAddr:                   getEnv("WEB_ADDR", ":8080"),
		SimInterval:               getEnvMillis("SIM_INTERVAL_MS", 50),
		SimAmplitude:              getEnvFloat("SIM_AMPLITUDE", 15.0),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	if c.BaudRate == 0 {
		return fmt.Errorf("BAUD_RATE must be positive")
	}
	if c.BridgeAddr == "" {
		return fmt.Errorf("BRIDGE_ADDR is required")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL_MS must be positive")
	}
	if c.CalibrationWindow <= 0 {
		return fmt.Errorf("CALIBRATION_WINDOW_MS must be positive")
	}
	if c.CalibrationStillThreshold <= 0 {
		return fmt.Errorf("CALIBRATION_STILL_THRESHOLD must be positive")
	}
	if c.CalibrationMinSamples <= 0 {
		return fmt.Errorf("CALIBRATION_MIN_SAMPLES must be positive")
	}
	if c.EmotionDwell < 0 {
		return fmt.Errorf("EMOTION_DWELL_MS must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}

// Package-level singleton so every binary resolves configuration exactly
// once. InitGlobal sets it, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// InitGlobal resolves the global configuration. Repeated calls are no-ops.
func InitGlobal(envPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(envPath)
	})
	return err
}

// Get returns the global configuration, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
