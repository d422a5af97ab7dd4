package entities

import "time"

// Shift is one worked stretch between a clock-in and a clock-out.
// ClockOut may be zero while the shift is still open.
type Shift struct {
	WorkerID string    `json:"worker_id"`
	FieldID  string    `json:"field_id,omitempty"`
	ClockIn  time.Time `json:"clock_in"`
	ClockOut time.Time `json:"clock_out,omitempty"`
}

// Hours returns the worked duration in hours, never negative. An open
// shift (zero ClockOut) counts as zero.
func (s Shift) Hours() float64 {
	if s.ClockIn.IsZero() || s.ClockOut.IsZero() {
		return 0
	}
	h := s.ClockOut.Sub(s.ClockIn).Hours()
	if h < 0 {
		return 0
	}
	return h
}
