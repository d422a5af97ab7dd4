package simulator

import (
	"math/rand"
	"time"

	"farmops/internal/model/messages"
)

// PunchClock fabricates a day of clock punches per worker. Each call
// advances one virtual day, so downstream day-bucketing sees distinct
// dates without waiting out real time.
type PunchClock struct {
	farmID  string
	workers []string
	rng     *rand.Rand
	day     time.Time
	loc     *time.Location
}

func NewPunchClock(farmID string, workers []string, start time.Time, loc *time.Location, seed int64) *PunchClock {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := start.In(loc).Date()
	return &PunchClock{
		farmID:  farmID,
		workers: workers,
		rng:     rand.New(rand.NewSource(seed)),
		day:     time.Date(y, m, d, 0, 0, 0, 0, loc),
		loc:     loc,
	}
}

// NextDay returns an in/out pair per worker for the next virtual day.
// Clock-in lands between 06:00 and 07:30, spans run 6 to 13 hours so
// every overtime band comes up eventually, and no shift crosses its
// local midnight.
func (p *PunchClock) NextDay() []messages.ShiftPunchEvent {
	punches := make([]messages.ShiftPunchEvent, 0, 2*len(p.workers))
	for _, w := range p.workers {
		in := p.day.Add(6*time.Hour + time.Duration(p.rng.Float64()*float64(90*time.Minute)))
		span := 6*time.Hour + time.Duration(p.rng.Float64()*float64(7*time.Hour))
		punches = append(punches,
			messages.ShiftPunchEvent{FarmID: p.farmID, WorkerID: w, Kind: messages.PunchIn, Timestamp: in.UTC()},
			messages.ShiftPunchEvent{FarmID: p.farmID, WorkerID: w, Kind: messages.PunchOut, Timestamp: in.Add(span).UTC()},
		)
	}
	p.day = p.day.AddDate(0, 0, 1)
	return punches
}
