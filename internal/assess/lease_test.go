package assess

import (
	"testing"
	"time"

	"farmops/internal/model/entities"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLeasePaymentDueMonthly(t *testing.T) {
	l := entities.Lease{
		ID:            "l-1",
		Status:        entities.LeaseActive,
		RentFrequency: entities.RentMonthly,
		StartDate:     date(2020, time.March, 1),
	}
	for _, asOf := range []time.Time{
		date(2020, time.March, 1),
		date(2021, time.July, 15),
		date(2024, time.December, 31),
	} {
		if !LeasePaymentDue(l, asOf) {
			t.Errorf("active monthly lease not due as of %s", asOf.Format("2006-01-02"))
		}
	}
}

func TestLeasePaymentDueAnnual(t *testing.T) {
	l := entities.Lease{
		ID:            "l-2",
		Status:        entities.LeaseActive,
		RentFrequency: entities.RentAnnual,
		StartDate:     date(2020, time.March, 15),
	}
	if !LeasePaymentDue(l, date(2024, time.March, 1)) {
		t.Error("annual lease starting March 2020 should be due in March 2024")
	}
	if LeasePaymentDue(l, date(2024, time.April, 1)) {
		t.Error("annual lease starting March 2020 should not be due in April 2024")
	}
	// Month granularity: day of month does not matter.
	if !LeasePaymentDue(l, date(2026, time.March, 31)) {
		t.Error("annual lease should be due any day of its anniversary month")
	}
}

func TestLeasePaymentDueInactive(t *testing.T) {
	l := entities.Lease{
		Status:        entities.LeaseInactive,
		RentFrequency: entities.RentMonthly,
		StartDate:     date(2020, time.March, 1),
	}
	if LeasePaymentDue(l, date(2024, time.March, 1)) {
		t.Error("inactive lease must never be due")
	}
}

func TestLeasePaymentDueUnknownFrequency(t *testing.T) {
	for _, freq := range []entities.RentFrequency{entities.RentUnknown, "", "weekly"} {
		l := entities.Lease{
			Status:        entities.LeaseActive,
			RentFrequency: freq,
			StartDate:     date(2020, time.March, 1),
		}
		if LeasePaymentDue(l, date(2024, time.March, 1)) {
			t.Errorf("lease with frequency %q must not be due", freq)
		}
	}
}

func TestLeasePaymentDueZeroDates(t *testing.T) {
	annual := entities.Lease{Status: entities.LeaseActive, RentFrequency: entities.RentAnnual}
	if LeasePaymentDue(annual, date(2024, time.January, 1)) {
		t.Error("annual lease with zero start date must not be due")
	}
	annual.StartDate = date(2020, time.January, 10)
	if LeasePaymentDue(annual, time.Time{}) {
		t.Error("zero asOf must not mark a lease due")
	}
}
