package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/assess"
	"farmops/pkg/logging"
)

func newTestGateway(persistence, events string) *Gateway {
	return NewGateway(Config{
		PersistenceURL:  persistence,
		EventsURL:       events,
		HTTPTimeout:     2 * time.Second,
		BreakerFailures: 2,
		BreakerOpenFor:  time.Minute,
	}, logging.NewNop())
}

func getDashboard(t *testing.T, gw *Gateway) DashboardData {
	t.Helper()
	rec := httptest.NewRecorder()
	gw.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var d DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func TestDashboardAssemblesTiles(t *testing.T) {
	persistence := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/soil/latest":
			_, _ = w.Write([]byte(`[
				{"farm_id":"farm-1","field_id":"field-b","sample_id":"s-2","ph":4.2,"organic_matter_pct":1.5,"timestamp":"2025-03-15T10:00:00Z"},
				{"farm_id":"farm-1","field_id":"field-a","sample_id":"s-1","ph":6.5,"organic_matter_pct":3.5,"timestamp":"2025-03-15T10:00:00Z"}
			]`))
		case "/data/shifts/latest":
			_, _ = w.Write([]byte(`[{"farm_id":"farm-1","worker_id":"w-1","date":"2025-03-15","hours":9.5,"punches":4}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer persistence.Close()

	events := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"alert_id":"a-1","kind":"shift.overtime","farm_id":"farm-1","ref_id":"w-1","severity":"warning","note":"Ada Kovacs worked 9.5h","time":"2025-03-15T18:00:00Z"}]`))
	}))
	defer events.Close()

	data := getDashboard(t, newTestGateway(persistence.URL, events.URL))

	require.Len(t, data.Fields, 2)
	assert.Equal(t, "field-a", data.Fields[0].FieldID, "tiles sorted by field id")
	assert.Equal(t, assess.BandOptimal, data.Fields[0].PHBadge.Band)
	assert.Equal(t, assess.SeveritySuccess, data.Fields[0].ListBadge)
	assert.Equal(t, assess.BandGood, data.Fields[0].OMBadge.Band)

	acid := data.Fields[1]
	assert.Equal(t, "field-b", acid.FieldID)
	assert.Equal(t, assess.BandVeryAcidic, acid.PHBadge.Band)
	assert.Equal(t, assess.SeverityError, acid.PHBadge.Severity)
	assert.Equal(t, assess.SeverityError, acid.ListBadge)
	assert.Equal(t, assess.BandLow, acid.OMBadge.Band)

	require.Len(t, data.Hours, 1)
	donut := data.Hours[0]
	assert.Equal(t, assess.BandSecondOvertime, donut.Band)
	assert.Equal(t, "orange", donut.Color)
	assert.InDelta(t, 142.5, donut.Angle, 1e-9)

	require.Len(t, data.Alerts, 1)
	assert.Equal(t, "shift.overtime", data.Alerts[0].Kind)
	assert.Equal(t, "Ada Kovacs worked 9.5h", data.Alerts[0].Note)

	assert.InDelta(t, 5.35, data.Stats["mean_ph"], 1e-9)
	assert.InDelta(t, 4.2, data.Stats["min_ph"], 1e-9)
	assert.InDelta(t, 6.5, data.Stats["max_ph"], 1e-9)
}

func TestDashboardServesLastGoodAlerts(t *testing.T) {
	var failEvents atomic.Bool
	var eventHits atomic.Int32
	events := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		eventHits.Add(1)
		if failEvents.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"alert_id":"a-1","kind":"lease.payment_due"}]`))
	}))
	defer events.Close()

	persistence := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer persistence.Close()

	gw := newTestGateway(persistence.URL, events.URL)

	d := getDashboard(t, gw)
	require.Len(t, d.Alerts, 1)

	failEvents.Store(true)
	d = getDashboard(t, gw)
	assert.Len(t, d.Alerts, 1, "stale alerts beat no alerts")
	d = getDashboard(t, gw)
	assert.Len(t, d.Alerts, 1)

	// two consecutive failures tripped the breaker: the next dashboard
	// request must not reach the upstream at all
	hits := eventHits.Load()
	d = getDashboard(t, gw)
	assert.Len(t, d.Alerts, 1)
	assert.Equal(t, hits, eventHits.Load(), "breaker open, upstream untouched")
}

func TestDashboardSurvivesDownUpstreams(t *testing.T) {
	// nothing listening on either side
	d := getDashboard(t, newTestGateway("http://127.0.0.1:1", "http://127.0.0.1:1"))
	assert.Empty(t, d.Fields)
	assert.Empty(t, d.Hours)
	assert.Empty(t, d.Alerts)
	assert.Empty(t, d.Stats)
}

func TestDashboardUnconfiguredUpstreams(t *testing.T) {
	d := getDashboard(t, newTestGateway("", ""))
	assert.Empty(t, d.Fields)
	assert.Empty(t, d.Alerts)
}
