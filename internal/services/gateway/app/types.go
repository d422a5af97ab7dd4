package app

import (
	"encoding/json"
	"math"
	"strconv"

	"farmops/internal/assess"
)

// ---------- upstream payloads ----------

// jsonNum pulls a numeric field that may arrive as number or string.
func jsonNum(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case float64:
			return x, true
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func jsonStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// SoilLatest is a persistence soil row as the gateway reads it.
// Decoding is tolerant: numbers may arrive as strings and the
// timestamp under either key.
type SoilLatest struct {
	FarmID        string  `json:"farm_id"`
	FieldID       string  `json:"field_id"`
	SampleID      string  `json:"sample_id"`
	PH            float64 `json:"ph"`
	OrganicMatter float64 `json:"organic_matter_pct"`
	Phosphorus    float64 `json:"phosphorus_ppm"`
	Potassium     float64 `json:"potassium_ppm"`
	CEC           float64 `json:"cec"`
	Time          string  `json:"timestamp"` // RFC3339
}

func (s *SoilLatest) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	s.FarmID = jsonStr(m, "farm_id")
	s.FieldID = jsonStr(m, "field_id")
	s.SampleID = jsonStr(m, "sample_id")
	s.Time = jsonStr(m, "timestamp", "time")
	s.PH, _ = jsonNum(m, "ph")
	s.OrganicMatter, _ = jsonNum(m, "organic_matter_pct", "om")
	s.Phosphorus, _ = jsonNum(m, "phosphorus_ppm", "p")
	s.Potassium, _ = jsonNum(m, "potassium_ppm", "k")
	s.CEC, _ = jsonNum(m, "cec")
	return nil
}

// ShiftLatest is a persistence worked-hours row.
type ShiftLatest struct {
	FarmID   string  `json:"farm_id"`
	WorkerID string  `json:"worker_id"`
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Punches  int     `json:"punches"`
	Time     string  `json:"timestamp"`
}

func (s *ShiftLatest) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	s.FarmID = jsonStr(m, "farm_id")
	s.WorkerID = jsonStr(m, "worker_id")
	s.Date = jsonStr(m, "date")
	s.Time = jsonStr(m, "timestamp", "time")
	s.Hours, _ = jsonNum(m, "hours")
	if p, ok := jsonNum(m, "punches"); ok {
		s.Punches = int(math.Round(p))
	}
	return nil
}

// Alert is an event-service alert row, passed through to the UI.
type Alert struct {
	AlertID  string `json:"alert_id,omitempty"`
	Kind     string `json:"kind"`
	FarmID   string `json:"farm_id,omitempty"`
	RefID    string `json:"ref_id,omitempty"`
	Severity string `json:"severity,omitempty"`
	Note     string `json:"note,omitempty"`
	Time     string `json:"time,omitempty"`
}

// ---------- dashboard payload ----------

// SoilTile is one field's card on the dashboard: the five-band pH
// badge, the coarse list badge and the organic matter verdict.
type SoilTile struct {
	FarmID        string            `json:"farm_id"`
	FieldID       string            `json:"field_id"`
	SampleID      string            `json:"sample_id,omitempty"`
	PH            float64           `json:"ph"`
	PHBadge       assess.Assessment `json:"ph_badge"`
	ListBadge     assess.Severity   `json:"list_badge"`
	OrganicMatter float64           `json:"organic_matter_pct"`
	OMBadge       assess.Assessment `json:"om_badge"`
	Time          string            `json:"time,omitempty"`
}

// HourDonut drives a worker's 24h time-clock ring.
type HourDonut struct {
	FarmID   string      `json:"farm_id"`
	WorkerID string      `json:"worker_id"`
	Date     string      `json:"date"`
	Hours    float64     `json:"hours"`
	Band     assess.Band `json:"band"`
	Color    string      `json:"color"`
	Angle    float64     `json:"angle"` // degrees on the 24h ring
}

type DashboardData struct {
	Fields []SoilTile         `json:"fields"`
	Hours  []HourDonut        `json:"hours"`
	Alerts []Alert            `json:"alerts"`
	Stats  map[string]float64 `json:"stats"`
}
