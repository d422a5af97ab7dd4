package assess

import (
	"time"

	"farmops/internal/model/entities"
)

// LeasePaymentDue reports whether a payment on the lease is likely due
// in the month of asOf. It is a display hint, not a billing calendar:
// every active monthly lease is flagged every month, annual leases only
// in the anniversary month of their start date (year ignored). Inactive
// leases, unknown frequencies and zero dates are never due.
func LeasePaymentDue(l entities.Lease, asOf time.Time) bool {
	if l.Status != entities.LeaseActive {
		return false
	}
	switch l.RentFrequency {
	case entities.RentMonthly:
		return true
	case entities.RentAnnual:
		if l.StartDate.IsZero() || asOf.IsZero() {
			return false
		}
		return l.StartDate.Month() == asOf.Month()
	}
	return false
}
