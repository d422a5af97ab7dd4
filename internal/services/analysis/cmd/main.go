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
	"farmops/internal/services/analysis"
	"farmops/pkg/config"
	"farmops/pkg/logging"
	"farmops/pkg/mqttbus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New("analysis")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	mqCfg := mqttbus.Config{
		Host:     config.Str("MQTT_HOST", "localhost"),
		Port:     config.Int("MQTT_PORT", 1883),
		User:     config.Str("MQTT_USER", "mqtt_user"),
		Password: config.Str("MQTT_PASS", "mqtt_pwd"),
		ClientID: config.Str("MQTT_CLIENT_ID", "analysis-service"),
	}
	mqClient, err := mqttbus.Connect(ctx, mqCfg, logger)
	if err != nil {
		logger.Fatalf("mqtt connect failed: %v", err)
	}

	sampleTopic := config.Str("SAMPLE_SUB_TOPIC", messages.TopicSoilSample+"/#")
	dedup := mqttbus.NewDeduper(config.Duration("DEDUP_TTL", 10*time.Minute), 20000)
	consumer := mqttbus.NewConsumer[messages.SoilSampleEvent](mqClient, sampleTopic, logger).WithDedup(dedup)
	publisher := mqttbus.NewPublisher(mqClient, messages.TopicSoilAssessment, logger)

	svc := analysis.NewService(consumer, publisher, logger)

	if path := config.Str("RULESET_PATH", ""); path != "" {
		if err := svc.WatchRules(ctx, path); err != nil {
			logger.Fatalf("ruleset load failed: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:              ":" + config.Str("PORT", "8080"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("analysis HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	go svc.Start(ctx)

	logger.Infof("analysis running. sub=%s", sampleTopic)
	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	logger.Info("analysis: shutdown complete")
}
