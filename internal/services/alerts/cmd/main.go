package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"farmops/internal/model/messages"
	"farmops/internal/services/alerts"
	"farmops/pkg/config"
	"farmops/pkg/logging"
	"farmops/pkg/mqttbus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New("alerts")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	registry, err := alerts.OpenRegistry(config.Str("REGISTRY_DB_PATH", "./alerts.db"))
	if err != nil {
		logger.Fatalf("registry open failed: %v", err)
	}
	defer registry.Close()

	if seedPath := config.Str("REGISTRY_SEED_PATH", ""); seedPath != "" {
		counts, err := alerts.LoadSeed(registry, seedPath)
		if err != nil {
			logger.Fatalf("registry seed failed: %v", err)
		}
		logger.Infof("seeded registry: %d fields, %d leases, %d workers",
			counts.Fields, counts.Leases, counts.Workers)
	}

	mqCfg := mqttbus.Config{
		Host:     config.Str("MQTT_HOST", "localhost"),
		Port:     config.Int("MQTT_PORT", 1883),
		User:     config.Str("MQTT_USER", "mqtt_user"),
		Password: config.Str("MQTT_PASS", "mqtt_pwd"),
		ClientID: config.Str("MQTT_CLIENT_ID", "alerts-service"),
	}
	mqClient, err := mqttbus.Connect(ctx, mqCfg, logger)
	if err != nil {
		logger.Fatalf("mqtt connect failed: %v", err)
	}

	summaryTopic := config.Str("AGGREGATED_SUB_TOPIC", messages.TopicShiftSummary+"/#")
	dedup := mqttbus.NewDeduper(config.Duration("DEDUP_TTL", 10*time.Minute), 20000)
	consumer := mqttbus.NewConsumer[messages.ShiftSummary](mqClient, summaryTopic, logger).WithDedup(dedup)
	publisher := mqttbus.NewPublisher(mqClient, messages.TopicAlert, logger)

	notifier := alerts.NewNotifier(
		config.Str("SLACK_BOT_TOKEN", ""),
		config.Str("SLACK_ALERT_CHANNEL", ""),
		logger,
	)

	svc := alerts.NewService(registry, consumer, publisher, notifier, logger)
	if err := svc.StartLeaseScheduler(ctx, config.Str("LEASE_SCAN_SCHEDULE", "0 9 * * *")); err != nil {
		logger.Fatalf("lease scheduler failed: %v", err)
	}
	go svc.Start(ctx)

	mux := alerts.NewHTTPMux(svc, registry)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + config.Str("PORT", "8080"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("alerts HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	logger.Infof("alerts running. summaries=%s db=%s", summaryTopic, config.Str("REGISTRY_DB_PATH", "./alerts.db"))
	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	logger.Info("alerts: shutdown complete")
}
