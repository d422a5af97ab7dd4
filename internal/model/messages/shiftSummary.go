package messages

import "time"

// ShiftSummary holds one worker's paired-up hours for a local day.
// Published by the aggregator on flush; Aggregated distinguishes it
// from raw punches downstream.
type ShiftSummary struct {
	FarmID     string    `json:"farm_id"`
	WorkerID   string    `json:"worker_id"`
	Date       string    `json:"date"` // local day, YYYY-MM-DD
	Hours      float64   `json:"hours"`
	Punches    int       `json:"punches"`
	Aggregated bool      `json:"aggregated"`
	Timestamp  time.Time `json:"timestamp"`
}
