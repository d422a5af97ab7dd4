package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryHTTPRoundTrip(t *testing.T) {
	svc, reg, pub := newTestService(t)
	mux := NewHTTPMux(svc, reg)

	post := func(path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		return rec
	}
	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := post("/registry/fields", `{"id":"field-1","farm_id":"farm-1","crop_type":"corn"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = post("/registry/workers", `{"id":"w-1","farm_id":"farm-1","name":"Ada Kovacs","active":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = post("/registry/leases", `[{"id":"lease-1","field_id":"field-1","rent_frequency":"monthly","status":"active"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"inserted":1}`, rec.Body.String())

	rec = get("/registry/leases")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []LeaseRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "farm-1", rows[0].FarmID)

	// the scan endpoint picks up the monthly lease just posted
	rec = post("/scan/leases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"published":1}`, rec.Body.String())
	assert.Len(t, pub.alerts(t), 1)
}

func TestRegistryHTTPRejectsBadInput(t *testing.T) {
	svc, reg, _ := newTestService(t)
	mux := NewHTTPMux(svc, reg)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"field without id", http.MethodPost, "/registry/fields", `{"farm_id":"farm-1"}`, http.StatusBadRequest},
		{"worker without id", http.MethodPost, "/registry/workers", `{"farm_id":"farm-1"}`, http.StatusBadRequest},
		{"lease object instead of array", http.MethodPost, "/registry/leases", `{"id":"l-1"}`, http.StatusBadRequest},
		{"delete not allowed", http.MethodDelete, "/registry/fields", "", http.StatusMethodNotAllowed},
		{"scan via GET not allowed", http.MethodGet, "/scan/leases", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
