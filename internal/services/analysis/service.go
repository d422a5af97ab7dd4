package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"farmops/internal/assess"
	"farmops/internal/model/entities"
	"farmops/internal/model/messages"
	"farmops/pkg/mqttbus"
)

var (
	samplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farmops_analysis_samples_total",
		Help: "Soil sample events consumed.",
	})
	assessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_analysis_assessments_total",
		Help: "Assessments published, by overall severity.",
	}, []string{"severity"})
	outOfRangeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_analysis_out_of_range_total",
		Help: "Readings outside their nutrient scale, by metric.",
	}, []string{"metric"})
	rulesetReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_analysis_ruleset_reloads_total",
		Help: "Ruleset reload attempts, by outcome.",
	}, []string{"outcome"})
)

// Service turns raw soil sample events into assessment events, raising
// a critical-soil alert when the overall severity is an error.
type Service struct {
	consumer  mqttbus.IConsumer[messages.SoilSampleEvent]
	publisher mqttbus.IPublisher
	rules     atomic.Pointer[assess.Ruleset]
	log       *zap.SugaredLogger
}

// NewService wires the consumer to the assessment handler. The service
// starts on the built-in ruleset; WatchRules swaps in a tuned one.
func NewService(c mqttbus.IConsumer[messages.SoilSampleEvent], p mqttbus.IPublisher, log *zap.SugaredLogger) *Service {
	s := &Service{consumer: c, publisher: p, log: log}
	s.rules.Store(&assess.DefaultRules)
	c.SetHandler(s.handleSample)
	return s
}

// Start consumes until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.consumer.ConsumeMessage(ctx)
	<-ctx.Done()
}

// Rules returns the ruleset currently in force.
func (s *Service) Rules() *assess.Ruleset {
	return s.rules.Load()
}

func (s *Service) handleSample(_ string, evt messages.SoilSampleEvent) error {
	samplesTotal.Inc()
	if evt.FarmID == "" || evt.FieldID == "" {
		s.log.Warnf("sample without farm/field ids (sample=%s), dropped", evt.SampleID)
		return nil
	}

	sample := entities.SoilSample{
		SampleID:         evt.SampleID,
		FieldID:          evt.FieldID,
		PH:               evt.PH,
		OrganicMatterPct: evt.OrganicMatterPct,
		PhosphorusPpm:    evt.PhosphorusPpm,
		PotassiumPpm:     evt.PotassiumPpm,
		CEC:              evt.CEC,
		SampledOn:        evt.SampledOn,
	}
	report := s.Rules().Soil(sample)
	countOutOfRange(report)

	out := messages.SoilAssessmentEvent{
		FarmID:    evt.FarmID,
		FieldID:   evt.FieldID,
		SampleID:  evt.SampleID,
		Report:    report,
		Timestamp: time.Now().UTC(),
	}
	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	topic := messages.SoilAssessmentTopic(evt.FarmID, evt.FieldID)
	if err := s.publisher.PublishTopic(topic, mqttbus.QoSFor(topic), b); err != nil {
		return fmt.Errorf("publish assessment: %w", err)
	}
	assessmentsTotal.WithLabelValues(string(report.Overall)).Inc()
	s.log.Infof("assessed sample %s field=%s overall=%s", evt.SampleID, evt.FieldID, report.Overall)

	if report.Overall == assess.SeverityError {
		return s.publishCriticalAlert(evt, report)
	}
	return nil
}

func (s *Service) publishCriticalAlert(evt messages.SoilSampleEvent, report assess.SoilReport) error {
	alert := messages.AlertEvent{
		AlertID:   uuid.NewString(),
		Kind:      messages.AlertSoilCritical,
		FarmID:    evt.FarmID,
		RefID:     evt.FieldID,
		Severity:  assess.SeverityError,
		Note:      criticalNote(report),
		Timestamp: time.Now().UTC(),
	}
	b, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	topic := messages.AlertTopic(evt.FarmID, alert.Kind)
	if err := s.publisher.PublishTopic(topic, mqttbus.QoSFor(topic), b); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	s.log.Warnf("critical soil alert for field %s: %s", evt.FieldID, alert.Note)
	return nil
}

// criticalNote lists the metrics that came back at error severity.
func criticalNote(report assess.SoilReport) string {
	var parts []string
	for _, m := range []struct {
		name string
		a    assess.Assessment
	}{
		{"ph", report.PH},
		{"organic matter", report.OrganicMatter},
		{"phosphorus", report.Phosphorus},
		{"potassium", report.Potassium},
		{"cec", report.CEC},
	} {
		if m.a.Severity == assess.SeverityError {
			if m.a.Note != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", m.name, m.a.Note))
			} else {
				parts = append(parts, m.name)
			}
		}
	}
	if len(parts) == 0 {
		return "critical soil assessment"
	}
	return strings.Join(parts, "; ")
}

func countOutOfRange(report assess.SoilReport) {
	for _, m := range []struct {
		name string
		a    assess.Assessment
	}{
		{"phosphorus", report.Phosphorus},
		{"potassium", report.Potassium},
		{"cec", report.CEC},
	} {
		if m.a.Band == assess.BandUnknown {
			outOfRangeTotal.WithLabelValues(m.name).Inc()
		}
	}
}
