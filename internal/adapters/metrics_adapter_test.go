package adapters

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rzzdr/portfolio-pilot/pkg/metrics"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "timeout", Status(errors.Timeout("budget exhausted")))
	assert.Equal(t, "degenerate_data", Status(errors.Wrap(errors.DegenerateData("TSLA"), "stocks")))
	assert.Equal(t, "unknown", Status(fmt.Errorf("plain")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	a := NewMetricsAdapter(nil)
	assert.NotPanics(t, func() {
		a.RecordSimulation("simulation", 1, time.Millisecond, nil)
		a.RecordOptimization("asset_classes", 1, 1, time.Millisecond, nil)
		a.RecordDataLoad("bonds", true, time.Millisecond, nil)
	})
}

func TestAdapterForwards(t *testing.T) {
	a := NewMetricsAdapter(metrics.NewRecorder(prometheus.NewRegistry()))
	assert.NotPanics(t, func() {
		a.RecordSimulation("risk_assessment", 2, time.Millisecond, errors.NotFound("bonds"))
		a.RecordDataLoad("AAPL", false, time.Millisecond, nil)
	})
}
