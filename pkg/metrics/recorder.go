package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StatusOK labels a successful operation
const StatusOK = "ok"

// Recorder handles metrics recording and exposure
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Simulation metrics
	simulationCounter *prometheus.CounterVec
	simulationLatency *prometheus.HistogramVec
	simulatedAssets   *prometheus.HistogramVec

	// Optimizer metrics
	optimizationCounter *prometheus.CounterVec
	optimizationLatency *prometheus.HistogramVec
	optimizerStarts     *prometheus.CounterVec

	// Historical data metrics
	dataLoadCounter *prometheus.CounterVec
	dataLoadLatency *prometheus.HistogramVec

	// Messaging metrics
	kafkaMessageCounter *prometheus.CounterVec
}

// NewRecorder creates a recorder registered with reg, or the default registry when nil
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		apiRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pp_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pp_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"method", "path"},
		),

		simulationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pp_simulations_total",
				Help: "The total number of simulation and risk-assessment runs",
			},
			[]string{"flow", "status"},
		),
		simulationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pp_simulation_latency_seconds",
				Help:    "Simulation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"flow"},
		),
		simulatedAssets: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pp_simulated_assets",
				Help:    "Number of allocated assets per simulation",
				Buckets: prometheus.LinearBuckets(1, 1, 5),
			},
			[]string{"flow"},
		),

		optimizationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pp_optimizations_total",
				Help: "The total number of optimizer runs",
			},
			[]string{"variant", "status"},
		),
		optimizationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pp_optimization_latency_seconds",
				Help:    "Optimizer latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
			},
			[]string{"variant"},
		),
		optimizerStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pp_optimizer_starts_total",
				Help: "Solver starts by outcome",
			},
			[]string{"variant", "outcome"},
		),

		dataLoadCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pp_data_loads_total",
				Help: "Historical price loads by key and source",
			},
			[]string{"key", "source", "status"},
		),
		dataLoadLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pp_data_load_latency_seconds",
				Help:    "Historical price load latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
			[]string{"source"},
		),

		kafkaMessageCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pp_kafka_messages_total",
				Help: "Kafka request messages handled",
			},
			[]string{"topic", "status"},
		),
	}
}

// RecordAPIRequest records metrics for an API request
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordSimulation records a simulation or risk-assessment run
func (r *Recorder) RecordSimulation(flow string, assets int, status string, latency time.Duration) {
	r.simulationCounter.WithLabelValues(flow, status).Inc()
	r.simulationLatency.WithLabelValues(flow).Observe(latency.Seconds())
	if assets > 0 {
		r.simulatedAssets.WithLabelValues(flow).Observe(float64(assets))
	}
}

// RecordOptimization records an optimizer run and its solver starts
func (r *Recorder) RecordOptimization(variant string, attempts, converged int, status string, latency time.Duration) {
	r.optimizationCounter.WithLabelValues(variant, status).Inc()
	r.optimizationLatency.WithLabelValues(variant).Observe(latency.Seconds())
	r.optimizerStarts.WithLabelValues(variant, "attempted").Add(float64(attempts))
	r.optimizerStarts.WithLabelValues(variant, "converged").Add(float64(converged))
}

// RecordDataLoad records a historical price load served from source
func (r *Recorder) RecordDataLoad(key, source, status string, latency time.Duration) {
	r.dataLoadCounter.WithLabelValues(key, source, status).Inc()
	r.dataLoadLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordKafkaMessage records a consumed request message
func (r *Recorder) RecordKafkaMessage(topic, status string) {
	r.kafkaMessageCounter.WithLabelValues(topic, status).Inc()
}
