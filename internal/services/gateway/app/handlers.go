package app

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"farmops/internal/assess"
)

var (
	dashboardRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farmops_gateway_dashboard_requests_total",
		Help: "Dashboard data requests served.",
	})
	dashboardSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "farmops_gateway_dashboard_seconds",
		Help:    "Dashboard assembly latency.",
		Buckets: prometheus.DefBuckets,
	})
	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_gateway_upstream_errors_total",
		Help: "Failed upstream fetches, by upstream.",
	}, []string{"upstream"})
)

func (g *Gateway) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	type res struct {
		key string
		val any
		err error
	}
	ch := make(chan res, 3)

	go func() {
		var soil []SoilLatest
		err := g.soil.GetJSON(ctx, &soil)
		ch <- res{"soil", soil, err}
	}()
	go func() {
		var shifts []ShiftLatest
		err := g.shifts.GetJSON(ctx, &shifts)
		ch <- res{"shifts", shifts, err}
	}()
	go func() {
		var alerts []Alert
		err := g.alerts.GetJSON(ctx, &alerts)
		ch <- res{"alerts", alerts, err}
	}()

	data := DashboardData{
		Fields: []SoilTile{},
		Hours:  []HourDonut{},
		Alerts: []Alert{},
		Stats:  map[string]float64{},
	}

	for i := 0; i < 3; i++ {
		rv := <-ch
		if rv.err != nil {
			upstreamErrors.WithLabelValues(rv.key).Inc()
			g.log.Debugf("dashboard: %s fetch failed: %v", rv.key, rv.err)
		}
		switch rv.key {
		case "soil":
			if s, ok := rv.val.([]SoilLatest); ok {
				data.Fields = soilTiles(s)
			}
		case "shifts":
			if s, ok := rv.val.([]ShiftLatest); ok {
				data.Hours = hourDonuts(s)
			}
		case "alerts":
			if a, ok := rv.val.([]Alert); ok {
				data.Alerts = g.alertsOrLastGood(a, rv.err)
			}
		}
	}

	data.Stats = phStats(data.Fields)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)

	dashboardRequests.Inc()
	dashboardSeconds.Observe(time.Since(start).Seconds())
	g.log.Infof("GET /dashboard/data [%dms] cb[soil]=%v cb[shifts]=%v cb[alerts]=%v fields=%d hours=%d alerts=%d",
		time.Since(start).Milliseconds(), g.soil.State(), g.shifts.State(), g.alerts.State(),
		len(data.Fields), len(data.Hours), len(data.Alerts))
}

// alertsOrLastGood keeps serving the last non-empty alert list while
// the event service is down. A successful empty response is real and
// clears nothing: alerts age out of the upstream window on their own.
func (g *Gateway) alertsOrLastGood(fresh []Alert, err error) []Alert {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil && len(fresh) > 0 {
		g.lastGoodAlerts = fresh
		return fresh
	}
	if err == nil {
		return []Alert{}
	}
	if len(g.lastGoodAlerts) > 0 {
		return g.lastGoodAlerts
	}
	return []Alert{}
}

func soilTiles(rows []SoilLatest) []SoilTile {
	tiles := make([]SoilTile, 0, len(rows))
	for _, s := range rows {
		tiles = append(tiles, SoilTile{
			FarmID:        s.FarmID,
			FieldID:       s.FieldID,
			SampleID:      s.SampleID,
			PH:            s.PH,
			PHBadge:       assess.PH(s.PH),
			ListBadge:     assess.PHQuickSeverity(s.PH),
			OrganicMatter: s.OrganicMatter,
			OMBadge:       assess.OrganicMatter(s.OrganicMatter),
			Time:          s.Time,
		})
	}
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].FarmID != tiles[j].FarmID {
			return tiles[i].FarmID < tiles[j].FarmID
		}
		return tiles[i].FieldID < tiles[j].FieldID
	})
	return tiles
}

func hourDonuts(rows []ShiftLatest) []HourDonut {
	out := make([]HourDonut, 0, len(rows))
	for _, s := range rows {
		a := assess.WorkedHours(s.Hours)
		out = append(out, HourDonut{
			FarmID:   s.FarmID,
			WorkerID: s.WorkerID,
			Date:     s.Date,
			Hours:    s.Hours,
			Band:     a.Band,
			Color:    a.Color,
			Angle:    assess.RingAngle(s.Hours),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}

// phStats summarizes pH across fields for the dashboard header.
func phStats(tiles []SoilTile) map[string]float64 {
	stats := map[string]float64{}
	if len(tiles) == 0 {
		return stats
	}
	var sum float64
	minv, maxv := math.MaxFloat64, -math.MaxFloat64
	for _, t := range tiles {
		sum += t.PH
		if t.PH < minv {
			minv = t.PH
		}
		if t.PH > maxv {
			maxv = t.PH
		}
	}
	stats["mean_ph"] = math.Round(sum/float64(len(tiles))*100) / 100
	stats["min_ph"] = minv
	stats["max_ph"] = maxv
	return stats
}
