package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"farmops/internal/model/messages"
	"farmops/internal/services/event"
	"farmops/pkg/config"
	"farmops/pkg/logging"
	"farmops/pkg/mqttbus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New("event")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	mqCfg := mqttbus.Config{
		Host:     config.Str("MQTT_HOST", "localhost"),
		Port:     config.Int("MQTT_PORT", 1883),
		User:     config.Str("MQTT_USER", "mqtt_user"),
		Password: config.Str("MQTT_PASS", "mqtt_pwd"),
		ClientID: config.Str("MQTT_CLIENT_ID", "event-service"),
	}
	mqClient, err := mqttbus.Connect(ctx, mqCfg, logger)
	if err != nil {
		logger.Fatalf("mqtt connect failed: %v", err)
	}

	influxURL := config.Str("INFLUX_URL", "http://localhost:8086")
	influxToken := config.Str("INFLUX_TOKEN", "")
	influxOrg := config.Str("INFLUX_ORG", "farmops")
	influxBucket := config.Str("INFLUX_BUCKET", "farm-events")

	flushInterval := config.Duration("WRITE_FLUSH_INTERVAL", 200*time.Millisecond)
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(config.Int("WRITE_BATCH_SIZE", 10))).
		SetFlushInterval(uint(flushInterval.Milliseconds()))
	influx := influxdb2.NewClientWithOptions(influxURL, influxToken, opts)
	defer influx.Close()

	writeAPI := influx.WriteAPI(influxOrg, influxBucket)
	writer := event.NewWriter(writeAPI, logger)

	topics := splitTopics(config.Str("EVENT_SUB_TOPICS",
		messages.TopicSoilAssessment+"/#,"+messages.TopicAlert+"/#"))

	// Both subscriptions ride QoS 1; dedup absorbs broker redeliveries.
	dedup := mqttbus.NewDeduper(config.Duration("DEDUP_TTL", 10*time.Minute), 20000)
	consumer := mqttbus.NewMultiConsumer[json.RawMessage](mqClient, topics, logger).WithDedup(dedup)

	decoder := event.NewDecoder(writer.WriteEvent)
	consumer.SetHandler(decoder.Handle)

	mux := http.NewServeMux()
	mux.Handle("/healthz", event.NewHealthHandler(mqClient, influx, writer))
	mux.Handle("/readyz", event.NewReadyHandler(mqClient, influx, writer, 2*time.Second))
	mux.Handle("/events/alerts/recent", event.NewAlertsRecentHandler(influx, influxOrg, influxBucket))

	srv := &http.Server{
		Addr:              ":" + config.Str("PORT", "8080"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("event HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	go consumer.ConsumeMessage(ctx)

	logger.Infof("event running. topics=%s bucket=%s", strings.Join(topics, ","), influxBucket)
	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)

	// Push out anything still batched before the client closes.
	writeAPI.Flush()
	logger.Info("event: shutdown complete")
}

func splitTopics(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
