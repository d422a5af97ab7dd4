package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"farmops/internal/model/messages"
	"farmops/internal/simulator"
	"farmops/pkg/config"
	"farmops/pkg/logging"
	"farmops/pkg/mqttbus"
)

func main() {
	farmID := flag.String("farm-id", "farm-1", "farm identifier")
	fieldsArg := flag.String("fields", "field-1,field-2", "comma-separated field identifiers")
	workersArg := flag.String("workers", "w-1,w-2", "comma-separated worker identifiers")
	lat := flag.Float64("lat", 41.51109, "latitude for the SoilGrids seed")
	lon := flag.Float64("lon", 12.37007, "longitude for the SoilGrids seed")
	sampleEvery := flag.Duration("sample-interval", 10*time.Second, "soil sample publish interval")
	punchEvery := flag.Duration("punch-interval", 30*time.Second, "virtual punch-day interval")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New("simulator")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	mqCfg := mqttbus.Config{
		Host:     config.Str("MQTT_HOST", "localhost"),
		Port:     config.Int("MQTT_PORT", 1883),
		User:     config.Str("MQTT_USER", "mqtt_user"),
		Password: config.Str("MQTT_PASS", "mqtt_pwd"),
		ClientID: config.Str("MQTT_CLIENT_ID", "simulator-"+*farmID),
	}
	mqClient, err := mqttbus.Connect(ctx, mqCfg, logger)
	if err != nil {
		logger.Fatalf("mqtt connect failed: %v", err)
	}
	publisher := mqttbus.NewPublisher(mqClient, messages.TopicSoilSample, logger)

	fields := splitList(*fieldsArg)
	if len(fields) == 0 {
		logger.Fatal("no fields configured")
	}
	gens := make(map[string]*simulator.SampleGenerator, len(fields))
	for i, f := range fields {
		g := simulator.NewSampleGenerator(*seed+int64(i), logger)
		g.SeedFromSoilGrids(ctx, *lat, *lon)
		gens[f] = g
	}

	// Start the punch clock two days back so the aggregator retires the
	// first virtual days on its next flush.
	var clock *simulator.PunchClock
	if workers := splitList(*workersArg); len(workers) > 0 {
		clock = simulator.NewPunchClock(*farmID, workers, time.Now().AddDate(0, 0, -2), time.Local, *seed)
	}

	sim := simulator.New(*farmID, gens, clock, publisher, logger)
	logger.Infof("simulator running. farm=%s fields=%d samples every %s, punch days every %s",
		*farmID, len(fields), *sampleEvery, *punchEvery)
	sim.Run(ctx, *sampleEvery, *punchEvery)
	logger.Info("simulator: shutdown complete")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
