package alerts

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/assess"
	"farmops/internal/model/entities"
	"farmops/internal/model/messages"
	"farmops/pkg/logging"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakePublisher) Publish(payload []byte) error { return f.PublishTopic("", 0, payload) }

func (f *fakePublisher) PublishTopic(topic string, qos byte, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{topic: topic, qos: qos, payload: payload})
	return nil
}

func (f *fakePublisher) Close() {}

func (f *fakePublisher) alerts(t *testing.T) []messages.AlertEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]messages.AlertEvent, 0, len(f.sent))
	for _, p := range f.sent {
		var a messages.AlertEvent
		require.NoError(t, json.Unmarshal(p.payload, &a))
		out = append(out, a)
	}
	return out
}

type fakeConsumer struct {
	handler func(topic string, msg messages.ShiftSummary) error
}

func (f *fakeConsumer) ConsumeMessage(ctx context.Context) { <-ctx.Done() }

func (f *fakeConsumer) SetHandler(h func(topic string, msg messages.ShiftSummary) error) {
	f.handler = h
}

// newTestService wires a service against a throwaway registry. The nil
// notifier doubles as the check that Notify tolerates being unset.
func newTestService(t *testing.T) (*Service, *Registry, *fakePublisher) {
	t.Helper()
	reg := openTestRegistry(t)
	pub := &fakePublisher{}
	svc := NewService(reg, &fakeConsumer{}, pub, nil, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc, reg, pub
}

func TestNewServiceRegistersHandler(t *testing.T) {
	cons := &fakeConsumer{}
	NewService(openTestRegistry(t), cons, &fakePublisher{}, nil, logging.NewNop())
	assert.NotNil(t, cons.handler)
}

func TestScanLeasesPublishesDueAlerts(t *testing.T) {
	svc, reg, pub := newTestService(t)

	require.NoError(t, reg.UpsertField(entities.Field{ID: "field-1", FarmID: "farm-1"}))
	require.NoError(t, reg.UpsertField(entities.Field{ID: "field-2", FarmID: "farm-2"}))
	_, err := reg.InsertLeases([]entities.Lease{
		{ID: "lease-m", FieldID: "field-1", Tenant: "Beck Farms",
			RentFrequency: entities.RentMonthly, Status: entities.LeaseActive},
		{ID: "lease-mar", FieldID: "field-2", RentFrequency: entities.RentAnnual,
			StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Status: entities.LeaseActive},
		{ID: "lease-jun", FieldID: "field-2", RentFrequency: entities.RentAnnual,
			StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Status: entities.LeaseActive},
		{ID: "lease-off", FieldID: "field-1", RentFrequency: entities.RentMonthly,
			Status: entities.LeaseInactive},
	})
	require.NoError(t, err)

	// March scan: the monthly lease and the annual lease starting in
	// March are due, the June annual and the inactive lease are not.
	n, err := svc.ScanLeases(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	alerts := pub.alerts(t)
	require.Len(t, alerts, 2)
	byRef := make(map[string]messages.AlertEvent, len(alerts))
	for _, a := range alerts {
		byRef[a.RefID] = a
	}

	monthly, ok := byRef["lease-m"]
	require.True(t, ok)
	assert.Equal(t, messages.AlertLeasePaymentDue, monthly.Kind)
	assert.Equal(t, "farm-1", monthly.FarmID)
	assert.Equal(t, assess.SeverityWarning, monthly.Severity)
	assert.Contains(t, monthly.Note, "Beck Farms")
	assert.NotEmpty(t, monthly.AlertID)

	annual, ok := byRef["lease-mar"]
	require.True(t, ok)
	assert.Equal(t, "farm-2", annual.FarmID)

	pub.mu.Lock()
	topics := []string{pub.sent[0].topic, pub.sent[1].topic}
	qos := pub.sent[0].qos
	pub.mu.Unlock()
	assert.Contains(t, topics, "event/alert/farm-1/lease.payment_due")
	assert.Contains(t, topics, "event/alert/farm-2/lease.payment_due")
	assert.Equal(t, byte(1), qos)
}

func TestScanLeasesOncePerMonth(t *testing.T) {
	svc, reg, pub := newTestService(t)

	require.NoError(t, reg.UpsertField(entities.Field{ID: "field-1", FarmID: "farm-1"}))
	require.NoError(t, reg.UpsertLease(entities.Lease{
		ID: "lease-1", FieldID: "field-1",
		RentFrequency: entities.RentMonthly, Status: entities.LeaseActive,
	}))

	march := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	n, err := svc.ScanLeases(march)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.ScanLeases(march.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 0, n, "rescan in the same month must not re-bill")

	n, err = svc.ScanLeases(march.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "next month opens a fresh period")

	assert.Len(t, pub.alerts(t), 2)
}

func TestOvertimePublishesAlert(t *testing.T) {
	svc, reg, pub := newTestService(t)
	require.NoError(t, reg.UpsertWorker(entities.Worker{
		ID: "w-1", FarmID: "farm-1", Name: "Ada Kovacs", Active: true,
	}))

	sum := messages.ShiftSummary{
		FarmID: "farm-1", WorkerID: "w-1", Date: "2025-03-15",
		Hours: 9.5, Punches: 4, Aggregated: true,
	}
	require.NoError(t, svc.handleShiftSummary("shift/aggregated/farm-1/w-1", sum))

	alerts := pub.alerts(t)
	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, messages.AlertShiftOvertime, a.Kind)
	assert.Equal(t, "w-1", a.RefID)
	assert.Equal(t, assess.SeverityWarning, a.Severity)
	assert.Contains(t, a.Note, "Ada Kovacs", "roster name beats raw worker id")
	assert.Contains(t, a.Note, "9.5h")
	assert.Contains(t, a.Note, string(assess.BandSecondOvertime))
}

func TestOvertimeExcessiveIsError(t *testing.T) {
	svc, _, pub := newTestService(t)

	// w-9 is not on the roster: the note falls back to the id
	sum := messages.ShiftSummary{
		FarmID: "farm-1", WorkerID: "w-9", Date: "2025-03-15", Hours: 12.5,
	}
	require.NoError(t, svc.handleShiftSummary("shift/aggregated/farm-1/w-9", sum))

	alerts := pub.alerts(t)
	require.Len(t, alerts, 1)
	assert.Equal(t, assess.SeverityError, alerts[0].Severity)
	assert.Contains(t, alerts[0].Note, "w-9 worked 12.5h")
	assert.Contains(t, alerts[0].Note, string(assess.BandExcessive))
}

func TestRegularDayRaisesNothing(t *testing.T) {
	svc, _, pub := newTestService(t)

	require.NoError(t, svc.handleShiftSummary("shift/aggregated/farm-1/w-1",
		messages.ShiftSummary{FarmID: "farm-1", WorkerID: "w-1", Date: "2025-03-15", Hours: 7.5}))
	require.NoError(t, svc.handleShiftSummary("shift/aggregated/farm-1/w-1",
		messages.ShiftSummary{FarmID: "farm-1", Date: "2025-03-15", Hours: 11}))
	require.NoError(t, svc.handleShiftSummary("shift/aggregated/farm-1/w-1",
		messages.ShiftSummary{FarmID: "farm-1", WorkerID: "w-1", Hours: 11}))

	assert.Empty(t, pub.alerts(t))
}

func TestOvertimeOncePerWorkerPerDay(t *testing.T) {
	svc, _, pub := newTestService(t)

	// The aggregator republishes running totals as a shift grows; only
	// the first overtime crossing for the day should alert.
	day := messages.ShiftSummary{FarmID: "farm-1", WorkerID: "w-1", Date: "2025-03-15", Hours: 8.5}
	require.NoError(t, svc.handleShiftSummary("shift/aggregated/farm-1/w-1", day))
	day.Hours = 10.8
	require.NoError(t, svc.handleShiftSummary("shift/aggregated/farm-1/w-1", day))
	assert.Len(t, pub.alerts(t), 1)

	day.Date = "2025-03-16"
	require.NoError(t, svc.handleShiftSummary("shift/aggregated/farm-1/w-1", day))
	assert.Len(t, pub.alerts(t), 2)
}

func TestStartLeaseSchedulerValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, svc.StartLeaseScheduler(ctx, ""), "empty schedule disables the scan")
	assert.Error(t, svc.StartLeaseScheduler(ctx, "not a schedule"))
	require.NoError(t, svc.StartLeaseScheduler(ctx, "0 9 * * *"))
}
