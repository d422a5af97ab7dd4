package mqttbus

import (
	"context"
	"encoding/json"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"farmops/internal/model/messages"
)

// IConsumer is the consuming side of the bus for payloads of type T.
type IConsumer[T any] interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler func(topic string, msg T) error)
}

// QoSFor returns the delivery QoS for a farmops topic. Assessment,
// alert and aggregated-shift events ride QoS 1; raw telemetry stays at
// QoS 0.
func QoSFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, messages.TopicSoilAssessment) ||
		strings.HasPrefix(t, messages.TopicAlert) ||
		strings.HasPrefix(t, messages.TopicShiftSummary) {
		return 1
	}
	return 0
}

// Consumer subscribes to one topic filter and decodes JSON payloads
// into T before invoking the handler. The handler receives the concrete
// message topic, so wildcard subscribers can read the path segments.
type Consumer[T any] struct {
	client  mqtt.Client
	topic   string
	handler func(topic string, msg T) error
	dedup   *Deduper
	log     *zap.SugaredLogger
}

// NewConsumer creates a Consumer for topic; set a handler before
// calling ConsumeMessage.
func NewConsumer[T any](client mqtt.Client, topic string, log *zap.SugaredLogger) *Consumer[T] {
	return &Consumer[T]{client: client, topic: topic, log: log}
}

// WithDedup drops payloads already seen by d before decoding. Used on
// QoS 1 subscriptions where the broker may redeliver.
func (c *Consumer[T]) WithDedup(d *Deduper) *Consumer[T] {
	c.dedup = d
	return c
}

func (c *Consumer[T]) SetHandler(handler func(topic string, msg T) error) {
	c.handler = handler
}

// ConsumeMessage subscribes and dispatches until ctx is cancelled, then
// unsubscribes.
func (c *Consumer[T]) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(c.topic, QoSFor(c.topic), func(_ mqtt.Client, m mqtt.Message) {
		c.dispatch(m)
	})
	if token.Wait() && token.Error() != nil {
		c.log.Errorf("subscribe %s: %v", c.topic, token.Error())
		return
	}
	c.log.Infof("subscribed to %s", c.topic)

	<-ctx.Done()

	unsub := c.client.Unsubscribe(c.topic)
	unsub.Wait()
}

func (c *Consumer[T]) dispatch(m mqtt.Message) {
	if c.handler == nil {
		c.log.Warnf("no handler set for topic %s", c.topic)
		return
	}
	if c.dedup != nil && !c.dedup.ShouldProcess(Fingerprint(m.Payload())) {
		return
	}
	var msg T
	if err := json.Unmarshal(m.Payload(), &msg); err != nil {
		c.log.Errorf("decode message on %s: %v", m.Topic(), err)
		return
	}
	if err := c.handler(m.Topic(), msg); err != nil {
		c.log.Errorf("handle message on %s: %v", m.Topic(), err)
	}
}

// MultiConsumer fans several topic filters into one handler.
type MultiConsumer[T any] struct {
	client  mqtt.Client
	topics  []string
	handler func(topic string, msg T) error
	dedup   *Deduper
	log     *zap.SugaredLogger
}

func NewMultiConsumer[T any](client mqtt.Client, topics []string, log *zap.SugaredLogger) *MultiConsumer[T] {
	return &MultiConsumer[T]{client: client, topics: topics, log: log}
}

func (m *MultiConsumer[T]) WithDedup(d *Deduper) *MultiConsumer[T] {
	m.dedup = d
	return m
}

func (m *MultiConsumer[T]) SetHandler(handler func(topic string, msg T) error) {
	m.handler = handler
}

func (m *MultiConsumer[T]) ConsumeMessage(ctx context.Context) {
	for _, topic := range m.topics {
		c := &Consumer[T]{client: m.client, topic: topic, handler: m.handler, dedup: m.dedup, log: m.log}
		token := m.client.Subscribe(topic, QoSFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			c.dispatch(msg)
		})
		token.Wait()
		if token.Error() != nil {
			m.log.Errorf("subscribe %s: %v", topic, token.Error())
		} else {
			m.log.Infof("subscribed to %s", topic)
		}
	}

	<-ctx.Done()

	for _, topic := range m.topics {
		m.client.Unsubscribe(topic)
	}
}
