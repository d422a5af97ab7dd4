package app

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config wires the gateway to its upstreams.
type Config struct {
	PersistenceURL string
	EventsURL      string

	SoilPath   string
	ShiftsPath string
	AlertsPath string

	HTTPTimeout time.Duration

	BreakerFailures uint32
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration
}

// Gateway is the dashboard BFF: it fans out to persistence and the
// event service, shields each upstream behind its own circuit breaker
// and shapes the results for the UI.
type Gateway struct {
	cfg    Config
	soil   *Upstream
	shifts *Upstream
	alerts *Upstream
	log    *zap.SugaredLogger

	mu             sync.Mutex
	lastGoodAlerts []Alert
}

func NewGateway(cfg Config, log *zap.SugaredLogger) *Gateway {
	if cfg.SoilPath == "" {
		cfg.SoilPath = "/data/soil/latest"
	}
	if cfg.ShiftsPath == "" {
		cfg.ShiftsPath = "/data/shifts/latest"
	}
	if cfg.AlertsPath == "" {
		cfg.AlertsPath = "/events/alerts/recent"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 3 * time.Second
	}

	// One breaker per upstream path: a struggling soil query must not
	// blind the dashboard to alerts.
	g := &Gateway{cfg: cfg, log: log}
	g.soil = NewUpstream("persistence-soil", cfg.PersistenceURL, cfg.SoilPath,
		cfg.HTTPTimeout, newBreaker("persistence-soil", cfg, log))
	g.shifts = NewUpstream("persistence-shifts", cfg.PersistenceURL, cfg.ShiftsPath,
		cfg.HTTPTimeout, newBreaker("persistence-shifts", cfg, log))
	g.alerts = NewUpstream("event-alerts", cfg.EventsURL, cfg.AlertsPath,
		cfg.HTTPTimeout, newBreaker("event-alerts", cfg, log))
	return g
}

// Mux returns the gateway routes. /metrics is mounted by main.
func (g *Gateway) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.HandleFunc("/dashboard/data", g.HandleDashboard)
	return mux
}
