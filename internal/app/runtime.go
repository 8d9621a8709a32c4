// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app wires configuration, transports and the pipeline into the
// runnable binaries. Each Run function blocks until SIGINT or SIGTERM.
package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/axon-robotics/axon_runtime/internal/bridge"
	"github.com/axon-robotics/axon_runtime/internal/calibration"
	"github.com/axon-robotics/axon_runtime/internal/config"
	"github.com/axon-robotics/axon_runtime/internal/face"
	"github.com/axon-robotics/axon_runtime/internal/logging"
	"github.com/axon-robotics/axon_runtime/internal/policy"
	"github.com/axon-robotics/axon_runtime/internal/rover"
	"github.com/axon-robotics/axon_runtime/internal/runtime"
	"github.com/axon-robotics/axon_runtime/internal/source"
	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// RunRuntime starts the full robot pipeline on the hardware serial port.
func RunRuntime(envPath string) error {
	if err := config.InitGlobal(envPath); err != nil {
		return err
	}
	cfg := config.Get()
	logging.Init(cfg.LogLevel)

	src := source.NewSerialSource(cfg.SerialPort, cfg.BaudRate)
	return runPipeline(cfg, src)
}

// RunSimulator starts the same pipeline against a synthetic sample
// generator, for bench work without the rover.
func RunSimulator(envPath string) error {
	if err := config.InitGlobal(envPath); err != nil {
		return err
	}
	cfg := config.Get()
	logging.Init(cfg.LogLevel)

	src := source.NewSyntheticSource(cfg.SimInterval, cfg.SimAmplitude)
	return runPipeline(cfg, src)
}

func runPipeline(cfg *config.Config, src source.Source) error {
	log := logging.L()

	br := bridge.New(src, log)
	if err := br.Listen(cfg.BridgeAddr); err != nil {
		return err
	}
	src.AddLineConsumer(br)

	cal := calibration.New(
		calibration.WithWindow(cfg.CalibrationWindow),
		calibration.WithStillThreshold(cfg.CalibrationStillThreshold),
		calibration.WithMinSamples(cfg.CalibrationMinSamples),
	)
	pol := policy.NewWithDwell(cfg.EmotionDwell)

	opts := []runtime.Option{
		runtime.WithInterval(cfg.TickInterval),
		runtime.WithPublisher(br),
		runtime.WithCloser(br),
		runtime.WithLogger(log),
	}

	if cfg.MQTTBroker != "" {
		sink, err := telemetry.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTClientID, cfg.TopicTelemetry)
		if err != nil {
			return err
		}
		log.Info("mqtt publishing enabled", "broker", cfg.MQTTBroker)
		mp := &mqttPublisher{sink: sink, poseTopic: cfg.TopicPose, telemetryTopic: cfg.TopicTelemetry}
		opts = append(opts, runtime.WithPublisher(mp), runtime.WithCloser(sink))
	}

	// The bridge and the MQTT sink are registered as closers, so a failed
	// Start tears both down before the error surfaces.
	loop := runtime.New(src, cal, pol, opts...)
	if err := loop.Start(); err != nil {
		return err
	}

	// Ask the rover base for its continuous feedback stream; without it
	// the UART stays silent.
	if err := src.SendCommand(rover.ContinuousFeedback(true)); err != nil {
		log.Warn("could not request feedback stream", "error", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	return loop.Stop()
}

// mqttPublisher adapts the MQTT sink to the pipeline publisher surface.
type mqttPublisher struct {
	sink           *telemetry.MQTTSink
	poseTopic      string
	telemetryTopic string
}

func (m *mqttPublisher) PublishSample(s telemetry.Sample) { m.sink.PublishSample(s) }
func (m *mqttPublisher) PublishPose(p face.Pose)          { m.sink.PublishJSON(m.poseTopic, p) }
func (m *mqttPublisher) PublishStreaming(live bool) {
	m.sink.PublishJSON(m.telemetryTopic+"/streaming", live)
}
