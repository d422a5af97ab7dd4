package messages

import (
	"time"

	"farmops/internal/assess"
)

// AlertKind names the condition an alert was raised for.
type AlertKind string

const (
	AlertLeasePaymentDue AlertKind = "lease.payment_due"
	AlertShiftOvertime   AlertKind = "shift.overtime"
	AlertSoilCritical    AlertKind = "soil.critical"
)

// AlertEvent is an actionable condition somewhere on the farm. RefID
// points at the subject: a lease, a worker or a field depending on Kind.
type AlertEvent struct {
	AlertID   string          `json:"alert_id"`
	Kind      AlertKind       `json:"kind"`
	FarmID    string          `json:"farm_id"`
	RefID     string          `json:"ref_id"`
	Severity  assess.Severity `json:"severity"`
	Note      string          `json:"note,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
