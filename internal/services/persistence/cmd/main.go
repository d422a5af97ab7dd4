package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"farmops/internal/model/messages"
	"farmops/internal/services/persistence"
	"farmops/pkg/config"
	"farmops/pkg/logging"
	"farmops/pkg/mqttbus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New("persistence")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	mqCfg := mqttbus.Config{
		Host:     config.Str("MQTT_HOST", "localhost"),
		Port:     config.Int("MQTT_PORT", 1883),
		User:     config.Str("MQTT_USER", "mqtt_user"),
		Password: config.Str("MQTT_PASS", "mqtt_pwd"),
		ClientID: config.Str("MQTT_CLIENT_ID", "persistence-service"),
	}
	mqClient, err := mqttbus.Connect(ctx, mqCfg, logger)
	if err != nil {
		logger.Fatalf("mqtt connect failed: %v", err)
	}

	soilTopic := config.Str("SAMPLE_SUB_TOPIC", messages.TopicSoilSample+"/#")
	shiftTopic := config.Str("AGGREGATED_SUB_TOPIC", messages.TopicShiftSummary+"/#")
	soilConsumer := mqttbus.NewConsumer[messages.SoilSampleEvent](mqClient, soilTopic, logger)
	// Summaries arrive at QoS 1 and may be redelivered.
	dedup := mqttbus.NewDeduper(config.Duration("DEDUP_TTL", 10*time.Minute), 20000)
	shiftConsumer := mqttbus.NewConsumer[messages.ShiftSummary](mqClient, shiftTopic, logger).WithDedup(dedup)

	influxCfg := persistence.InfluxConfig{
		URL:    config.Str("INFLUX_URL", "http://localhost:8086"),
		Token:  config.Str("INFLUX_TOKEN", ""),
		Org:    config.Str("INFLUX_ORG", "farmops"),
		Bucket: config.Str("INFLUX_BUCKET", "farm-data"),
	}
	influxClient := influxdb2.NewClient(influxCfg.URL, influxCfg.Token)
	defer influxClient.Close()

	svc, err := persistence.NewService(soilConsumer, shiftConsumer, influxClient, influxCfg, logger)
	if err != nil {
		logger.Fatalf("persistence init failed: %v", err)
	}

	mux := persistence.NewHTTPMux(svc)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ready": true})
	})

	srv := &http.Server{
		Addr:              ":" + config.Str("PORT", "8080"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("persistence HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	go svc.Start(ctx)

	logger.Infof("persistence running. soil=%s shifts=%s bucket=%s", soilTopic, shiftTopic, influxCfg.Bucket)
	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	logger.Info("persistence: shutdown complete")
}
