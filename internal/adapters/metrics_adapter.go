package adapters

import (
	"time"

	"github.com/rzzdr/portfolio-pilot/internal/risk"
	"github.com/rzzdr/portfolio-pilot/internal/store"
	"github.com/rzzdr/portfolio-pilot/pkg/metrics"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
)

// MetricsAdapter adapts *metrics.Recorder to the recorder interfaces declared
// by the calculator and the cached price store
type MetricsAdapter struct {
	recorder *metrics.Recorder
}

var (
	_ risk.MetricsRecorder = (*MetricsAdapter)(nil)
	_ store.LoadRecorder   = (*MetricsAdapter)(nil)
)

// NewMetricsAdapter creates a new MetricsAdapter
func NewMetricsAdapter(recorder *metrics.Recorder) *MetricsAdapter {
	return &MetricsAdapter{
		recorder: recorder,
	}
}

// RecordSimulation implements risk.MetricsRecorder
func (a *MetricsAdapter) RecordSimulation(flow string, assets int, latency time.Duration, err error) {
	if a.recorder != nil {
		a.recorder.RecordSimulation(flow, assets, Status(err), latency)
	}
}

// RecordOptimization implements risk.MetricsRecorder
func (a *MetricsAdapter) RecordOptimization(variant string, attempts, succeeded int, latency time.Duration, err error) {
	if a.recorder != nil {
		a.recorder.RecordOptimization(variant, attempts, succeeded, Status(err), latency)
	}
}

// RecordDataLoad implements store.LoadRecorder
func (a *MetricsAdapter) RecordDataLoad(key string, cached bool, latency time.Duration, err error) {
	if a.recorder == nil {
		return
	}
	source := "disk"
	if cached {
		source = "cache"
	}
	a.recorder.RecordDataLoad(key, source, Status(err), latency)
}

// Status maps err to a metric label: "ok" or the error type name
func Status(err error) string {
	if err == nil {
		return metrics.StatusOK
	}
	return errors.TypeOf(err).String()
}
