package entities

import "time"

// SoilSample is one lab result for a field. Numeric fields are
// non-negative by convention but never clamped here; the assessment
// engine handles out-of-range values.
type SoilSample struct {
	SampleID         string    `json:"sample_id"`
	FieldID          string    `json:"field_id"`
	PH               float64   `json:"ph"`
	OrganicMatterPct float64   `json:"organic_matter_pct"`
	PhosphorusPpm    float64   `json:"phosphorus_ppm"`
	PotassiumPpm     float64   `json:"potassium_ppm"`
	CEC              float64   `json:"cec"` // cation exchange capacity [meq/100g]
	SampledOn        time.Time `json:"sampled_on"`
}
