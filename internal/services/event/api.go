package event

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/query"
)

// Alert is the shape the gateway reads.
type Alert struct {
	AlertID  string `json:"alert_id,omitempty"`
	Kind     string `json:"kind"`
	FarmID   string `json:"farm_id,omitempty"`
	RefID    string `json:"ref_id,omitempty"`
	Severity string `json:"severity"`
	Note     string `json:"note,omitempty"`
	Time     string `json:"time"` // RFC3339
}

type alertQueryParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
}

func parseAlertParams(r *http.Request, defMin, defLim, defTOms int) alertQueryParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	return alertQueryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
}

func buildAlertFlux(bucket string, minutes, limit int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q and r.event_type == "alert")
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> keep(columns: ["_time","farm_id","ref_id","kind","severity","alert_id","note"])
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, bucket, minutes, measurementEvent, limit)
}

func runAlerts(w http.ResponseWriter, r *http.Request, influx influxdb2.Client, org, bucket string, defMin, defLim int) {
	p := parseAlertParams(r, defMin, defLim, 2000)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
	defer cancel()

	api := influx.QueryAPI(org)
	res, err := api.Query(ctx, buildAlertFlux(bucket, p.Minutes, p.Limit))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Error", "influx-query-error")
		_, _ = w.Write([]byte("[]"))
		return
	}
	defer func() {
		_ = res.Close()
	}()

	out := make([]Alert, 0, p.Limit)
	for res.Next() {
		rec := res.Record()
		out = append(out, Alert{
			AlertID:  recString(rec, "alert_id"),
			Kind:     recString(rec, "kind"),
			FarmID:   recString(rec, "farm_id"),
			RefID:    recString(rec, "ref_id"),
			Severity: recString(rec, "severity"),
			Note:     recString(rec, "note"),
			Time:     rec.Time().UTC().Format(time.RFC3339),
		})
	}
	if res.Err() != nil {
		w.Header().Set("X-Error", "influx-iter-error")
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func recString(rec *query.FluxRecord, key string) string {
	if v := rec.ValueByKey(key); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// NewAlertsRecentHandler serves GET /events/alerts/recent?limit=20[&minutes=1440].
func NewAlertsRecentHandler(influx influxdb2.Client, org, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runAlerts(w, r, influx, org, bucket, 1440, 20)
	})
}
