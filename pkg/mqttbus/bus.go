package mqttbus

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Config describes the broker connection for one service.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
}

func (c Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

// Connect dials the broker, retrying with exponential backoff. The
// returned client disconnects itself when ctx is cancelled.
func Connect(ctx context.Context, cfg Config, log *zap.SugaredLogger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warnf("mqtt connect to %s failed: %v", cfg.BrokerURL(), token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
	if err != nil {
		return nil, fmt.Errorf("mqtt connect after retries: %w", err)
	}
	log.Infof("connected to MQTT broker at %s", cfg.BrokerURL())

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Info("mqtt connection closed")
	}()

	return client, nil
}

// Close disconnects the shared client if it is still connected.
func Close(client mqtt.Client, log *zap.SugaredLogger) {
	if client.IsConnected() {
		client.Disconnect(250)
		log.Info("mqtt connection closed")
	}
}
