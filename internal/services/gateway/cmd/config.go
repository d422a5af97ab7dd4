package main

import (
	"time"

	"farmops/internal/services/gateway/app"
	"farmops/pkg/config"
)

// fileConfig is the optional on-disk half of the gateway config:
// upstream addresses and paths. Env vars override whatever the file
// says.
type fileConfig struct {
	PersistenceURL string `yaml:"persistence_url"`
	EventsURL      string `yaml:"events_url"`
	SoilPath       string `yaml:"soil_path"`
	ShiftsPath     string `yaml:"shifts_path"`
	AlertsPath     string `yaml:"alerts_path"`
}

func loadConfig() (app.Config, error) {
	fc := fileConfig{
		PersistenceURL: "http://localhost:8081",
		EventsURL:      "http://localhost:8082",
		SoilPath:       "/data/soil/latest",
		ShiftsPath:     "/data/shifts/latest",
		AlertsPath:     "/events/alerts/recent",
	}
	if err := config.LoadYAML(config.Str("CONFIG_FILE", ""), &fc); err != nil {
		return app.Config{}, err
	}
	config.Override(&fc.PersistenceURL, "PERSISTENCE_URL")
	config.Override(&fc.EventsURL, "EVENT_URL")
	config.Override(&fc.SoilPath, "SOIL_PATH")
	config.Override(&fc.ShiftsPath, "SHIFTS_PATH")
	config.Override(&fc.AlertsPath, "ALERTS_PATH")

	return app.Config{
		PersistenceURL: fc.PersistenceURL,
		EventsURL:      fc.EventsURL,

		SoilPath:   fc.SoilPath,
		ShiftsPath: fc.ShiftsPath,
		AlertsPath: fc.AlertsPath,

		HTTPTimeout: config.Duration("UPSTREAM_TIMEOUT", 3*time.Second),

		BreakerFailures: uint32(config.Int("BREAKER_FAILURES", 3)),
		BreakerOpenFor:  config.Duration("BREAKER_OPEN_FOR", 10*time.Second),
		BreakerInterval: config.Duration("BREAKER_INTERVAL", time.Minute),
	}, nil
}
