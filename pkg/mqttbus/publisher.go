package mqttbus

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// IPublisher is the publishing side of the bus.
type IPublisher interface {
	Publish(payload []byte) error
	PublishTopic(topic string, qos byte, payload []byte) error
	Close()
}

// Publisher sends payloads to a default topic over the shared client.
type Publisher struct {
	client mqtt.Client
	topic  string
	log    *zap.SugaredLogger
}

// NewPublisher creates a Publisher bound to topic.
func NewPublisher(client mqtt.Client, topic string, log *zap.SugaredLogger) *Publisher {
	return &Publisher{client: client, topic: topic, log: log}
}

// Publish sends payload to the default topic at its registered QoS.
func (p *Publisher) Publish(payload []byte) error {
	return p.PublishTopic(p.topic, QoSFor(p.topic), payload)
}

// PublishTopic sends payload to an explicit topic and QoS, for events
// whose topic carries per-message segments (farm, field, kind).
func (p *Publisher) PublishTopic(topic string, qos byte, payload []byte) error {
	token := p.client.Publish(topic, qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	p.log.Debugf("published %d bytes to %s", len(payload), topic)
	return nil
}

// Close disconnects the underlying client if still connected.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		p.log.Info("mqtt client disconnected")
	}
}
