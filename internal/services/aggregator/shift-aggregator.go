package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"farmops/internal/model/messages"
	"farmops/pkg/mqttbus"
)

// ShiftAggregatorService pairs raw clock punches into per-worker daily
// hour totals. Punches buffer in memory keyed by worker and local day;
// a ticker flushes each bucket as a ShiftSummary. A bucket republishes
// while a shift is still open so downstream always sees the running
// total, and is retired once its day has passed.
type ShiftAggregatorService struct {
	consumer      mqttbus.IConsumer[messages.ShiftPunchEvent]
	publisher     mqttbus.IPublisher
	flushInterval time.Duration
	loc           *time.Location

	mu     sync.Mutex
	buffer map[dayKey]*dayBucket

	log *zap.SugaredLogger
	now func() time.Time
}

type dayKey struct {
	farmID   string
	workerID string
	date     string // local day, YYYY-MM-DD
}

type dayBucket struct {
	punches []messages.ShiftPunchEvent
	dirty   bool
}

func NewShiftAggregatorService(consumer mqttbus.IConsumer[messages.ShiftPunchEvent], publisher mqttbus.IPublisher, flushInterval time.Duration, loc *time.Location, log *zap.SugaredLogger) *ShiftAggregatorService {
	if loc == nil {
		loc = time.Local
	}
	return &ShiftAggregatorService{
		consumer:      consumer,
		publisher:     publisher,
		flushInterval: flushInterval,
		loc:           loc,
		buffer:        make(map[dayKey]*dayBucket),
		log:           log,
		now:           time.Now,
	}
}

func (s *ShiftAggregatorService) messageHandler(_ string, punch messages.ShiftPunchEvent) error {
	if punch.FarmID == "" || punch.WorkerID == "" {
		s.log.Warnf("punch without farm/worker ids (kind=%s), dropped", punch.Kind)
		return nil
	}
	switch punch.Kind {
	case messages.PunchIn, messages.PunchOut:
	default:
		return fmt.Errorf("unknown punch kind %q", punch.Kind)
	}
	if punch.Timestamp.IsZero() {
		punch.Timestamp = s.now()
	}

	key := dayKey{
		farmID:   punch.FarmID,
		workerID: punch.WorkerID,
		date:     punch.Timestamp.In(s.loc).Format("2006-01-02"),
	}
	s.mu.Lock()
	b := s.buffer[key]
	if b == nil {
		b = &dayBucket{}
		s.buffer[key] = b
	}
	b.punches = append(b.punches, punch)
	b.dirty = true
	s.mu.Unlock()

	s.log.Debugf("buffered %s punch for %s/%s on %s", punch.Kind, punch.FarmID, punch.WorkerID, key.date)
	return nil
}

func (s *ShiftAggregatorService) Start(ctx context.Context) {
	s.consumer.SetHandler(s.messageHandler)
	go s.consumer.ConsumeMessage(ctx)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-ticker.C:
			s.flush(s.now())
		}
	}
}

// flush publishes a summary for every bucket that gained punches since
// the last cycle or still has an open shift. Buckets whose local day
// ended before asOf get a final summary (open spans clamped at the
// day boundary) and are dropped.
func (s *ShiftAggregatorService) flush(asOf time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, b := range s.buffer {
		dayEnd := dayEndFor(key.date, s.loc, asOf)
		closed := asOf.After(dayEnd)
		cutoff := asOf
		if closed {
			cutoff = dayEnd
		}
		hours, open := pairHours(b.punches, cutoff)

		if !b.dirty && !open {
			if closed {
				delete(s.buffer, key)
			}
			continue
		}

		sum := messages.ShiftSummary{
			FarmID:     key.farmID,
			WorkerID:   key.workerID,
			Date:       key.date,
			Hours:      math.Round(hours*100) / 100,
			Punches:    len(b.punches),
			Aggregated: true,
			Timestamp:  asOf.UTC(),
		}
		payload, err := json.Marshal(sum)
		if err != nil {
			s.log.Errorf("marshal summary for %s/%s: %v", key.farmID, key.workerID, err)
			continue
		}
		topic := messages.ShiftSummaryTopic(key.farmID, key.workerID)
		if err := s.publisher.PublishTopic(topic, mqttbus.QoSFor(topic), payload); err != nil {
			s.log.Errorf("publish summary for %s/%s: %v", key.farmID, key.workerID, err)
			continue
		}
		s.log.Infof("published summary %s/%s %s: %.2fh over %d punches", key.farmID, key.workerID, key.date, sum.Hours, sum.Punches)

		b.dirty = false
		if closed {
			delete(s.buffer, key)
		}
	}
}

// pairHours walks the punches in time order summing closed in/out
// spans. A trailing "in" stays open and counts up to cutoff. An "in"
// while a shift is already open and an "out" without one are ignored.
func pairHours(punches []messages.ShiftPunchEvent, cutoff time.Time) (float64, bool) {
	sorted := append([]messages.ShiftPunchEvent(nil), punches...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var total time.Duration
	var openAt time.Time
	open := false
	for _, p := range sorted {
		switch p.Kind {
		case messages.PunchIn:
			if !open {
				openAt = p.Timestamp
				open = true
			}
		case messages.PunchOut:
			if open {
				total += p.Timestamp.Sub(openAt)
				open = false
			}
		}
	}
	if open && cutoff.After(openAt) {
		total += cutoff.Sub(openAt)
	}
	return total.Hours(), open
}

func dayEndFor(date string, loc *time.Location, fallback time.Time) time.Time {
	midnight, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return fallback
	}
	return midnight.AddDate(0, 0, 1)
}
