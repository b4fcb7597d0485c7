package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics tracks the post-processing job queue.
type WorkerMetrics struct {
	jobsProcessed *prometheus.CounterVec
	jobBacklog    *prometheus.GaugeVec
	jobLag        prometheus.Histogram
}

var (
	workerMetricsOnce sync.Once
	workerMetrics     *WorkerMetrics
)

// Worker returns the process-wide worker metrics, registering them on first
// use.
func Worker(serviceName, environment string) *WorkerMetrics {
	workerMetricsOnce.Do(func() {
		workerMetrics = newWorkerMetrics(prometheus.DefaultRegisterer, serviceName, environment)
	})
	return workerMetrics
}

// ResetWorkerMetricsForTest clears the singleton so tests can re-register.
func ResetWorkerMetricsForTest() {
	workerMetricsOnce = sync.Once{}
	workerMetrics = nil
}

func newWorkerMetrics(registerer prometheus.Registerer, serviceName, environment string) *WorkerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = "gateway"
	}
	environment = strings.TrimSpace(environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	jobsProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "gateway_postprocess_jobs_total",
			Help:        "Total post-processing jobs handled by result.",
			ConstLabels: constLabels,
		},
		[]string{"kind", "result"}, // result: success | retried | failed
	)

	jobBacklog := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "gateway_postprocess_backlog_total",
			Help:        "Number of post-processing jobs pending by kind.",
			ConstLabels: constLabels,
		},
		[]string{"kind"},
	)

	jobLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "gateway_postprocess_lag_seconds",
			Help:        "Delay between job enqueue and completion.",
			Buckets:     []float64{1, 5, 15, 60, 300, 900, 3600},
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(jobsProcessed, jobBacklog, jobLag)

	return &WorkerMetrics{
		jobsProcessed: jobsProcessed,
		jobBacklog:    jobBacklog,
		jobLag:        jobLag,
	}
}

func (m *WorkerMetrics) IncJobProcessed(kind, result string) {
	if m == nil {
		return
	}
	m.jobsProcessed.WithLabelValues(kind, result).Inc()
}

func (m *WorkerMetrics) SetBacklog(kind string, value int) {
	if m == nil {
		return
	}
	m.jobBacklog.WithLabelValues(kind).Set(float64(value))
}

func (m *WorkerMetrics) ObserveJobLag(lag time.Duration) {
	if m == nil {
		return
	}
	seconds := lag.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.jobLag.Observe(seconds)
}
