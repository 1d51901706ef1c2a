package notifier

import (
	"encoding/json"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type MQTTPublisher interface {
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
}

// MQTTNotifier publishes controller decisions to an MQTT topic, e.g. for Home
// Assistant's MQTT integration to pick up.
type MQTTNotifier struct {
	Publisher MQTTPublisher
	Topic     string
	Logger    *slog.Logger
}

var _ Notifier = &MQTTNotifier{}

type mqttPayload struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

func (m *MQTTNotifier) Notify(message string) {
	payload, err := json.Marshal(mqttPayload{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   message,
	})
	if err != nil {
		m.Logger.Error("failed to marshal mqtt payload", slog.Any("err", err))
		return
	}
	token := m.Publisher.Publish(m.Topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		m.Logger.Error("mqtt publish timed out")
		return
	}
	if err = token.Error(); err != nil {
		m.Logger.Error("failed to publish to mqtt", slog.Any("err", err))
	}
}
