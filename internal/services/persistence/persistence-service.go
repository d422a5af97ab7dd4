package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"farmops/internal/model/messages"
	"farmops/pkg/mqttbus"
)

const (
	measurementSoil  = "soil_metrics"
	measurementHours = "worked_hours"
)

var (
	pointsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_persistence_points_written_total",
		Help: "Influx points written, by measurement.",
	}, []string{"measurement"})
	writeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_persistence_write_errors_total",
		Help: "Influx write failures, by measurement.",
	}, []string{"measurement"})
)

type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// fluxQuerier is the slice of the Influx query API the service needs.
type fluxQuerier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// Service lands soil samples and shift summaries in InfluxDB and keeps
// an in-memory latest-value cache so reads survive an Influx outage.
type Service struct {
	soilConsumer  mqttbus.IConsumer[messages.SoilSampleEvent]
	shiftConsumer mqttbus.IConsumer[messages.ShiftSummary]
	writeAPI      api.WriteAPIBlocking
	queryAPI      fluxQuerier
	bucket        string
	log           *zap.SugaredLogger

	mu          sync.RWMutex
	latestSoil  map[string]messages.SoilSampleEvent // by field id
	latestShift map[string]messages.ShiftSummary    // by worker id
}

func NewService(soilConsumer mqttbus.IConsumer[messages.SoilSampleEvent], shiftConsumer mqttbus.IConsumer[messages.ShiftSummary], client influxdb2.Client, cfg InfluxConfig, log *zap.SugaredLogger) (*Service, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	return &Service{
		soilConsumer:  soilConsumer,
		shiftConsumer: shiftConsumer,
		writeAPI:      client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI:      client.QueryAPI(cfg.Org),
		bucket:        cfg.Bucket,
		log:           log,
		latestSoil:    make(map[string]messages.SoilSampleEvent),
		latestShift:   make(map[string]messages.ShiftSummary),
	}, nil
}

// Start wires the handlers and consumes until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.soilConsumer.SetHandler(func(topic string, evt messages.SoilSampleEvent) error {
		return s.handleSoilSample(ctx, evt)
	})
	s.shiftConsumer.SetHandler(func(topic string, sum messages.ShiftSummary) error {
		return s.handleShiftSummary(ctx, sum)
	})
	go s.soilConsumer.ConsumeMessage(ctx)
	go s.shiftConsumer.ConsumeMessage(ctx)
	<-ctx.Done()
}

func (s *Service) handleSoilSample(ctx context.Context, evt messages.SoilSampleEvent) error {
	if evt.FieldID == "" {
		s.log.Warnf("soil sample without field id (sample=%s), dropped", evt.SampleID)
		return nil
	}
	ts := soilTime(evt)
	if ts.IsZero() {
		ts = time.Now()
	}

	// Cache before Influx: the cache is the fallback when Influx is down.
	s.mu.Lock()
	if prev, ok := s.latestSoil[evt.FieldID]; !ok || soilTime(prev).Before(ts) {
		s.latestSoil[evt.FieldID] = evt
	}
	s.mu.Unlock()

	tags := map[string]string{
		"farm_id":   evt.FarmID,
		"field_id":  evt.FieldID,
		"sample_id": evt.SampleID,
	}
	fields := map[string]interface{}{
		"ph":  evt.PH,
		"om":  evt.OrganicMatterPct,
		"p":   evt.PhosphorusPpm,
		"k":   evt.PotassiumPpm,
		"cec": evt.CEC,
	}
	point := influxdb2.NewPoint(measurementSoil, tags, fields, ts)
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		writeErrors.WithLabelValues(measurementSoil).Inc()
		s.log.Errorf("write soil point: %v", err)
		return err
	}
	pointsWritten.WithLabelValues(measurementSoil).Inc()
	s.log.Infof("wrote %s field=%s sample=%s ph=%.2f", measurementSoil, evt.FieldID, evt.SampleID, evt.PH)
	return nil
}

func (s *Service) handleShiftSummary(ctx context.Context, sum messages.ShiftSummary) error {
	if sum.WorkerID == "" {
		s.log.Warn("shift summary without worker id, dropped")
		return nil
	}
	ts := sum.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	s.mu.Lock()
	if prev, ok := s.latestShift[sum.WorkerID]; !ok || shiftNewer(prev, sum) {
		s.latestShift[sum.WorkerID] = sum
	}
	s.mu.Unlock()

	tags := map[string]string{
		"farm_id":   sum.FarmID,
		"worker_id": sum.WorkerID,
	}
	fields := map[string]interface{}{
		"hours":      sum.Hours,
		"punches":    int64(sum.Punches),
		"date":       sum.Date,
		"aggregated": sum.Aggregated,
	}
	point := influxdb2.NewPoint(measurementHours, tags, fields, ts)
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		writeErrors.WithLabelValues(measurementHours).Inc()
		s.log.Errorf("write shift point: %v", err)
		return err
	}
	pointsWritten.WithLabelValues(measurementHours).Inc()
	s.log.Infof("wrote %s worker=%s date=%s hours=%.2f", measurementHours, sum.WorkerID, sum.Date, sum.Hours)
	return nil
}

func soilTime(evt messages.SoilSampleEvent) time.Time {
	if !evt.SampledOn.IsZero() {
		return evt.SampledOn
	}
	return evt.Timestamp
}

// shiftNewer prefers the later local day, then the later flush.
func shiftNewer(prev, next messages.ShiftSummary) bool {
	if prev.Date != next.Date {
		return prev.Date < next.Date
	}
	return prev.Timestamp.Before(next.Timestamp)
}

// LatestSoilCache returns the cached newest sample per field.
func (s *Service) LatestSoilCache() []messages.SoilSampleEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]messages.SoilSampleEvent, 0, len(s.latestSoil))
	for _, v := range s.latestSoil {
		out = append(out, v)
	}
	return out
}

// LatestShiftCache returns the cached newest summary per worker.
func (s *Service) LatestShiftCache() []messages.ShiftSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]messages.ShiftSummary, 0, len(s.latestShift))
	for _, v := range s.latestShift {
		out = append(out, v)
	}
	return out
}

func soilFluxQuery(bucket string, minutes int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)
  |> last()
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> keep(columns: ["_time","farm_id","field_id","sample_id","ph","om","p","k","cec"])
`, bucket, minutes, measurementSoil)
}

func shiftFluxQuery(bucket string, minutes int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)
  |> last()
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> keep(columns: ["_time","farm_id","worker_id","hours","punches","date"])
`, bucket, minutes, measurementHours)
}

// QueryLatestSoilFromInflux reads the newest sample per field within the
// window. last() returns one row per series, so fields sampled more than
// once still reduce to the newest row here.
func (s *Service) QueryLatestSoilFromInflux(ctx context.Context, minutes int) ([]messages.SoilSampleEvent, error) {
	res, err := s.queryAPI.Query(ctx, soilFluxQuery(s.bucket, minutes))
	if err != nil {
		return nil, err
	}
	defer res.Close()

	latest := make(map[string]messages.SoilSampleEvent)
	for res.Next() {
		rec := res.Record()
		fieldID := asString(rec.ValueByKey("field_id"))
		if fieldID == "" {
			continue
		}
		evt := messages.SoilSampleEvent{
			FarmID:           asString(rec.ValueByKey("farm_id")),
			FieldID:          fieldID,
			SampleID:         asString(rec.ValueByKey("sample_id")),
			PH:               asFloat(rec.ValueByKey("ph")),
			OrganicMatterPct: asFloat(rec.ValueByKey("om")),
			PhosphorusPpm:    asFloat(rec.ValueByKey("p")),
			PotassiumPpm:     asFloat(rec.ValueByKey("k")),
			CEC:              asFloat(rec.ValueByKey("cec")),
			SampledOn:        rec.Time(),
			Timestamp:        rec.Time(),
		}
		if prev, ok := latest[fieldID]; !ok || soilTime(prev).Before(soilTime(evt)) {
			latest[fieldID] = evt
		}
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	out := make([]messages.SoilSampleEvent, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	return out, nil
}

// QueryLatestShiftsFromInflux reads the newest summary per worker within
// the window.
func (s *Service) QueryLatestShiftsFromInflux(ctx context.Context, minutes int) ([]messages.ShiftSummary, error) {
	res, err := s.queryAPI.Query(ctx, shiftFluxQuery(s.bucket, minutes))
	if err != nil {
		return nil, err
	}
	defer res.Close()

	latest := make(map[string]messages.ShiftSummary)
	for res.Next() {
		rec := res.Record()
		workerID := asString(rec.ValueByKey("worker_id"))
		if workerID == "" {
			continue
		}
		sum := messages.ShiftSummary{
			FarmID:     asString(rec.ValueByKey("farm_id")),
			WorkerID:   workerID,
			Date:       asString(rec.ValueByKey("date")),
			Hours:      asFloat(rec.ValueByKey("hours")),
			Punches:    int(asFloat(rec.ValueByKey("punches"))),
			Aggregated: true,
			Timestamp:  rec.Time(),
		}
		if prev, ok := latest[workerID]; !ok || shiftNewer(prev, sum) {
			latest[workerID] = sum
		}
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	out := make([]messages.ShiftSummary, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	return out, nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return 0
}
