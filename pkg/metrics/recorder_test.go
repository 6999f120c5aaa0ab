package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordSimulation("simulation", 2, StatusOK, 30*time.Millisecond)
	r.RecordSimulation("simulation", 1, "not_found", time.Millisecond)
	r.RecordOptimization("stocks", 1000, 990, StatusOK, time.Second)
	r.RecordDataLoad("bonds", "cache", StatusOK, time.Microsecond)
	r.RecordAPIRequest("POST", "/api/v1/simulate", 200, 10*time.Millisecond)
	r.RecordKafkaMessage("portfolio.requests", StatusOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.simulationCounter.WithLabelValues("simulation", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.simulationCounter.WithLabelValues("simulation", "not_found")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(r.optimizerStarts.WithLabelValues("stocks", "attempted")))
	assert.Equal(t, 990.0, testutil.ToFloat64(r.optimizerStarts.WithLabelValues("stocks", "converged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dataLoadCounter.WithLabelValues("bonds", "cache", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.apiRequestCounter.WithLabelValues("POST", "/api/v1/simulate", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.kafkaMessageCounter.WithLabelValues("portfolio.requests", StatusOK)))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.RecordSimulation("risk_assessment", 4, StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pp_simulations_total{flow="risk_assessment",status="ok"} 1`)
}
