package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestSeries returns the requests_total counters keyed by route label.
func requestSeries(t *testing.T) map[string]float64 {
	t.Helper()
	families, err := Registry.Gather()
	require.NoError(t, err)

	series := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "stockadoodle_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "route" {
					series[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	return series
}

func TestInstrumentHandlerRouteLabels(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {})

	before := requestSeries(t)

	for _, path := range []string{"/nope-a1", "/nope-b2", "/items/1", "/items/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	after := requestSeries(t)
	assert.Equal(t, before[unmatchedRoute]+2, after[unmatchedRoute])
	assert.Equal(t, before["/items/{id}"]+2, after["/items/{id}"])
	for route := range after {
		assert.NotContains(t, route, "/nope", "raw paths must not become labels")
		assert.NotEqual(t, "/items/1", route)
	}
}

func TestObserveHelpers(t *testing.T) {
	ObserveQuery(0, nil)
	RecordActivityWrite("product", nil)

	families, err := Registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["stockadoodle_db_query_duration_seconds"])
	assert.True(t, names["stockadoodle_activity_entries_total"])
}
