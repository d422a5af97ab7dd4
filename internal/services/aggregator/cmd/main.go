package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"farmops/internal/model"
	"farmops/internal/services/aggregator"
	"farmops/pkg/config"
	"farmops/pkg/logging"
	"farmops/pkg/mqttbus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New("aggregator")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	mqCfg := mqttbus.Config{
		Host:     config.Str("MQTT_HOST", "localhost"),
		Port:     config.Int("MQTT_PORT", 1883),
		User:     config.Str("MQTT_USER", "mqtt_user"),
		Password: config.Str("MQTT_PASS", "mqtt_pwd"),
		ClientID: config.Str("MQTT_CLIENT_ID", "aggregator-service"),
	}
	mqClient, err := mqttbus.Connect(ctx, mqCfg, logger)
	if err != nil {
		logger.Fatalf("mqtt connect failed: %v", err)
	}

	loc := time.Local
	if tz := config.Str("SHIFT_TZ", ""); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			logger.Fatalf("bad SHIFT_TZ %q: %v", tz, err)
		}
	}

	punchTopic := config.Str("PUNCH_SUB_TOPIC", model.TopicShiftPunch+"/#")
	consumer := mqttbus.NewConsumer[model.ShiftPunchEvent](mqClient, punchTopic, logger)
	publisher := mqttbus.NewPublisher(mqClient, model.TopicShiftSummary, logger)

	svc := aggregator.NewShiftAggregatorService(
		consumer,
		publisher,
		config.Duration("FLUSH_INTERVAL", time.Minute),
		loc,
		logger,
	)

	logger.Infof("aggregator running. sub=%s flush=%s tz=%s", punchTopic, config.Duration("FLUSH_INTERVAL", time.Minute), loc)
	svc.Start(ctx)
	logger.Info("aggregator: shutdown complete")
}
