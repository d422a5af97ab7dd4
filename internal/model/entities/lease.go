package entities

import "time"

// RentFrequency is how often rent falls due on a lease.
type RentFrequency string

const (
	RentMonthly RentFrequency = "monthly"
	RentAnnual  RentFrequency = "annual"
	RentUnknown RentFrequency = "unknown"
)

// LeaseStatus indicates whether a lease is currently in force.
type LeaseStatus string

const (
	LeaseActive   LeaseStatus = "active"
	LeaseInactive LeaseStatus = "inactive"
)

// Lease is a rental agreement on a field.
type Lease struct {
	ID            string        `json:"id"`
	FieldID       string        `json:"field_id"`
	Tenant        string        `json:"tenant"`
	RentFrequency RentFrequency `json:"rent_frequency"`
	RentAmount    float64       `json:"rent_amount,omitempty"`
	StartDate     time.Time     `json:"start_date"`
	Status        LeaseStatus   `json:"status"`
}
