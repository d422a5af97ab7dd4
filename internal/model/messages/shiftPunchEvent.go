package messages

import "time"

// PunchKind says which way a worker punched the clock.
type PunchKind string

const (
	PunchIn  PunchKind = "in"
	PunchOut PunchKind = "out"
)

// ShiftPunchEvent is one clock-in or clock-out from the field.
type ShiftPunchEvent struct {
	FarmID    string    `json:"farm_id"`
	WorkerID  string    `json:"worker_id"`
	FieldID   string    `json:"field_id,omitempty"`
	Kind      PunchKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}
