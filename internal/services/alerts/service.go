package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"farmops/internal/assess"
	"farmops/internal/model/messages"
	"farmops/pkg/mqttbus"
)

var (
	alertsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_alerts_published_total",
		Help: "Alert events published, by kind.",
	}, []string{"kind"})
	leaseScans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farmops_alerts_lease_scans_total",
		Help: "Completed lease payment scans.",
	})
)

// Service raises business alerts: rent coming due on active leases and
// workers running into overtime. Lease alerts come from a scheduled
// registry scan, overtime alerts from the aggregated shift stream.
type Service struct {
	registry  *Registry
	consumer  mqttbus.IConsumer[messages.ShiftSummary]
	publisher mqttbus.IPublisher
	notifier  *Notifier
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewService(registry *Registry, consumer mqttbus.IConsumer[messages.ShiftSummary], publisher mqttbus.IPublisher, notifier *Notifier, log *zap.SugaredLogger) *Service {
	s := &Service{
		registry:  registry,
		consumer:  consumer,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
	consumer.SetHandler(s.handleShiftSummary)
	return s
}

// Start consumes shift summaries until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.consumer.ConsumeMessage(ctx)
	<-ctx.Done()
}

// StartLeaseScheduler runs ScanLeases on a 5-field cron schedule until
// ctx is cancelled. An empty or invalid schedule disables the scan.
func (s *Service) StartLeaseScheduler(ctx context.Context, schedule string) error {
	if schedule == "" {
		s.log.Info("lease scan disabled (no schedule)")
		return nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("parse lease scan schedule %q: %w", schedule, err)
	}

	go func() {
		for {
			now := s.now()
			next := sched.Next(now)
			s.log.Infof("next lease scan at %s", next.Format("Mon Jan 2 15:04"))
			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
				if n, err := s.ScanLeases(s.now()); err != nil {
					s.log.Errorf("lease scan: %v", err)
				} else {
					s.log.Infof("lease scan complete, %d alerts", n)
				}
			}
		}
	}()
	return nil
}

// ScanLeases walks the active leases and publishes a payment-due alert
// for each lease due as of asOf, at most once per lease per month.
func (s *Service) ScanLeases(asOf time.Time) (int, error) {
	rows, err := s.registry.ActiveLeases()
	if err != nil {
		return 0, err
	}
	leaseScans.Inc()

	period := asOf.Format("2006-01")
	published := 0
	for _, row := range rows {
		if !assess.LeasePaymentDue(row.Lease, asOf) {
			continue
		}
		fresh, err := s.registry.MarkAlertSent(string(messages.AlertLeasePaymentDue), row.Lease.ID, period)
		if err != nil {
			return published, err
		}
		if !fresh {
			continue
		}
		note := fmt.Sprintf("rent due for lease %s", row.Lease.ID)
		if row.Lease.Tenant != "" {
			note = fmt.Sprintf("rent due from %s for lease %s", row.Lease.Tenant, row.Lease.ID)
		}
		alert := messages.AlertEvent{
			AlertID:   uuid.NewString(),
			Kind:      messages.AlertLeasePaymentDue,
			FarmID:    row.FarmID,
			RefID:     row.Lease.ID,
			Severity:  assess.SeverityWarning,
			Note:      note,
			Timestamp: asOf.UTC(),
		}
		if err := s.publishAlert(alert); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

func (s *Service) handleShiftSummary(_ string, sum messages.ShiftSummary) error {
	if sum.WorkerID == "" || sum.Date == "" {
		return nil
	}
	a := assess.WorkedHours(sum.Hours)
	if a.Band == assess.BandRegular {
		return nil
	}

	// One overtime alert per worker per day, however often the running
	// total gets republished.
	fresh, err := s.registry.MarkAlertSent(string(messages.AlertShiftOvertime), sum.WorkerID, sum.Date)
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	who := sum.WorkerID
	if w, ok, err := s.registry.Worker(sum.WorkerID); err == nil && ok && w.Name != "" {
		who = w.Name
	}
	alert := messages.AlertEvent{
		AlertID:   uuid.NewString(),
		Kind:      messages.AlertShiftOvertime,
		FarmID:    sum.FarmID,
		RefID:     sum.WorkerID,
		Severity:  a.Severity,
		Note:      fmt.Sprintf("%s worked %.1fh on %s (%s)", who, sum.Hours, sum.Date, a.Band),
		Timestamp: s.now().UTC(),
	}
	return s.publishAlert(alert)
}

func (s *Service) publishAlert(alert messages.AlertEvent) error {
	b, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	topic := messages.AlertTopic(alert.FarmID, alert.Kind)
	if err := s.publisher.PublishTopic(topic, mqttbus.QoSFor(topic), b); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	alertsPublished.WithLabelValues(string(alert.Kind)).Inc()
	s.log.Warnf("alert %s %s/%s: %s", alert.Kind, alert.FarmID, alert.RefID, alert.Note)
	s.notifier.Notify(alert)
	return nil
}
