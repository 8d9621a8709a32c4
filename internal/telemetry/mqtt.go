package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTSink republishes pipeline output to an MQTT broker so that dashboards
// off the robot network can follow along without holding a bridge session.
// Publishes are retained: late subscribers immediately see the last state.
type MQTTSink struct {
	client      mqtt.Client
	sampleTopic string
}

// NewMQTTSink connects to the broker and returns a ready sink.
func NewMQTTSink(broker, clientID, sampleTopic string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	return &MQTTSink{client: client, sampleTopic: sampleTopic}, nil
}

// PublishSample publishes one calibrated sample on the sample topic.
// Publish failures are logged and dropped; a flaky broker must not
// stall the control loop.
func (m *MQTTSink) PublishSample(s Sample) {
	payload, err := json.Marshal(s)
	if err != nil {
		slog.Error("mqtt sample marshal error", "err", err)
		return
	}
	if token := m.client.Publish(m.sampleTopic, 0, true, payload); token.Wait() && token.Error() != nil {
		slog.Warn("mqtt publish error", "topic", m.sampleTopic, "err", token.Error())
	}
}

// PublishJSON publishes an arbitrary value on the given topic. Used for the
// pose stream, whose type lives above this package.
func (m *MQTTSink) PublishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("mqtt marshal error", "topic", topic, "err", err)
		return
	}
	if token := m.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		slog.Warn("mqtt publish error", "topic", topic, "err", token.Error())
	}
}

// Close disconnects from the broker.
func (m *MQTTSink) Close() error {
	m.client.Disconnect(250)
	return nil
}
