package messages

import (
	"time"
)

// SoilSampleEvent is published when a lab result (or simulated sample)
// for a field becomes available.
type SoilSampleEvent struct {
	FarmID           string    `json:"farm_id"`
	FieldID          string    `json:"field_id"`
	SampleID         string    `json:"sample_id"`
	PH               float64   `json:"ph"`
	OrganicMatterPct float64   `json:"organic_matter_pct"`
	PhosphorusPpm    float64   `json:"phosphorus_ppm"`
	PotassiumPpm     float64   `json:"potassium_ppm"`
	CEC              float64   `json:"cec"`
	SampledOn        time.Time `json:"sampled_on"`
	Timestamp        time.Time `json:"timestamp"`
}
