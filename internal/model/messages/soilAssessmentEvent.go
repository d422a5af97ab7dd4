package messages

import (
	"time"

	"farmops/internal/assess"
)

// SoilAssessmentEvent is published by the analysis service to record
// how a sample was judged, band by band.
type SoilAssessmentEvent struct {
	FarmID    string            `json:"farm_id"`
	FieldID   string            `json:"field_id"`
	SampleID  string            `json:"sample_id"`
	Report    assess.SoilReport `json:"report"`
	Timestamp time.Time         `json:"timestamp"`
}
