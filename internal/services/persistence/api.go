package persistence

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"farmops/internal/model/messages"
)

func NewHTTPMux(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })

	// GET /data/soil/latest and GET /data/shifts/latest
	// Query params:
	//   source=auto|influx|cache   (default auto: try Influx, fall back to cache)
	//   minutes=<int>              (Influx window, default 1440 = 24h)
	mux.HandleFunc("/data/soil/latest", func(w http.ResponseWriter, r *http.Request) {
		source, minutes := readSourceParams(r)

		var list []messages.SoilSampleEvent
		var used string

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if source == "influx" || source == "auto" {
			if got, err := svc.QueryLatestSoilFromInflux(ctx, minutes); err == nil && len(got) > 0 {
				list, used = got, "influx"
			}
		}
		if used == "" {
			list, used = svc.LatestSoilCache(), "cache"
		}

		type outT struct {
			FarmID           string  `json:"farm_id"`
			FieldID          string  `json:"field_id"`
			SampleID         string  `json:"sample_id"`
			PH               float64 `json:"ph"`
			OrganicMatterPct float64 `json:"organic_matter_pct"`
			PhosphorusPpm    float64 `json:"phosphorus_ppm"`
			PotassiumPpm     float64 `json:"potassium_ppm"`
			CEC              float64 `json:"cec"`
			Timestamp        string  `json:"timestamp"`
		}
		out := make([]outT, 0, len(list))
		for _, v := range list {
			out = append(out, outT{
				FarmID: v.FarmID, FieldID: v.FieldID, SampleID: v.SampleID,
				PH: v.PH, OrganicMatterPct: v.OrganicMatterPct,
				PhosphorusPpm: v.PhosphorusPpm, PotassiumPpm: v.PotassiumPpm, CEC: v.CEC,
				Timestamp: soilTime(v).UTC().Format(time.RFC3339),
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].FieldID < out[j].FieldID })

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Data-Source", used)
		_ = json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/data/shifts/latest", func(w http.ResponseWriter, r *http.Request) {
		source, minutes := readSourceParams(r)

		var list []messages.ShiftSummary
		var used string

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if source == "influx" || source == "auto" {
			if got, err := svc.QueryLatestShiftsFromInflux(ctx, minutes); err == nil && len(got) > 0 {
				list, used = got, "influx"
			}
		}
		if used == "" {
			list, used = svc.LatestShiftCache(), "cache"
		}

		type outT struct {
			FarmID    string  `json:"farm_id"`
			WorkerID  string  `json:"worker_id"`
			Date      string  `json:"date"`
			Hours     float64 `json:"hours"`
			Punches   int     `json:"punches"`
			Timestamp string  `json:"timestamp"`
		}
		out := make([]outT, 0, len(list))
		for _, v := range list {
			out = append(out, outT{
				FarmID: v.FarmID, WorkerID: v.WorkerID, Date: v.Date,
				Hours: v.Hours, Punches: v.Punches,
				Timestamp: v.Timestamp.UTC().Format(time.RFC3339),
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Data-Source", used)
		_ = json.NewEncoder(w).Encode(out)
	})

	return mux
}

func readSourceParams(r *http.Request) (source string, minutes int) {
	q := r.URL.Query()
	source = strings.ToLower(q.Get("source"))
	if source == "" {
		source = "auto"
	}
	minutes = 60 * 24
	if s := q.Get("minutes"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			minutes = n
		}
	}
	return source, minutes
}
