package simulator

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farmops/internal/model/messages"
	"farmops/pkg/mqttbus"
)

// Simulator publishes fabricated soil samples and clock punches so the
// pipeline can run without lab results or a field crew.
type Simulator struct {
	farmID    string
	fields    map[string]*SampleGenerator
	clock     *PunchClock
	publisher mqttbus.IPublisher
	log       *zap.SugaredLogger
	now       func() time.Time
}

func New(farmID string, fields map[string]*SampleGenerator, clock *PunchClock, publisher mqttbus.IPublisher, log *zap.SugaredLogger) *Simulator {
	return &Simulator{
		farmID:    farmID,
		fields:    fields,
		clock:     clock,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Run publishes samples every sampleEvery and a virtual day of punches
// every punchEvery until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, sampleEvery, punchEvery time.Duration) {
	samples := time.NewTicker(sampleEvery)
	defer samples.Stop()
	punches := time.NewTicker(punchEvery)
	defer punches.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-samples.C:
			s.publishSamples()
		case <-punches.C:
			s.publishPunchDay()
		}
	}
}

func (s *Simulator) publishSamples() {
	for _, field := range s.fieldIDs() {
		st := s.fields[field].Next()
		now := s.now().UTC()
		evt := messages.SoilSampleEvent{
			FarmID:           s.farmID,
			FieldID:          field,
			SampleID:         uuid.NewString(),
			PH:               round1(st.PH),
			OrganicMatterPct: round1(st.OrganicMatter),
			PhosphorusPpm:    round1(st.Phosphorus),
			PotassiumPpm:     round1(st.Potassium),
			CEC:              round1(st.CEC),
			SampledOn:        now,
			Timestamp:        now,
		}
		b, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		topic := messages.SoilSampleTopic(s.farmID, field)
		if err := s.publisher.PublishTopic(topic, mqttbus.QoSFor(topic), b); err != nil {
			s.log.Errorf("publish sample: %v", err)
			continue
		}
		s.log.Debugf("sample %s/%s ph=%.1f om=%.1f", s.farmID, field, evt.PH, evt.OrganicMatterPct)
	}
}

func (s *Simulator) publishPunchDay() {
	if s.clock == nil {
		return
	}
	day := s.clock.NextDay()
	for _, p := range day {
		b, err := json.Marshal(p)
		if err != nil {
			continue
		}
		topic := messages.ShiftPunchTopic(p.FarmID, p.WorkerID)
		if err := s.publisher.PublishTopic(topic, mqttbus.QoSFor(topic), b); err != nil {
			s.log.Errorf("publish punch: %v", err)
		}
	}
	s.log.Debugf("punched a virtual day: %d punches", len(day))
}

func (s *Simulator) fieldIDs() []string {
	ids := make([]string, 0, len(s.fields))
	for id := range s.fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
