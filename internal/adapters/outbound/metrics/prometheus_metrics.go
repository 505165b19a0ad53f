package metrics

import (
	"net/http"

	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lumenq"

// PrometheusMetricsService implements queue.MetricsService on its own
// Prometheus registry
type PrometheusMetricsService struct {
	registry  *prometheus.Registry
	enqueued  *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	cancelled *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewPrometheusMetricsService creates the collectors and registers them together
// with the Go runtime and process collectors.
// depth, when non-nil, is exported as the queue depth gauge.
func NewPrometheusMetricsService(depth func() int) *PrometheusMetricsService {
	s := &PrometheusMetricsService{
		registry: prometheus.NewRegistry(),
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_enqueued_total",
			Help:      "Jobs accepted onto the queue.",
		}, []string{"job_type"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Jobs whose handler finished successfully.",
		}, []string{"job_type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Jobs that ended in failure, by reason.",
		}, []string{"job_type", "reason"}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_cancelled_total",
			Help:      "Jobs interrupted by shutdown.",
		}, []string{"job_type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Processing time of completed jobs.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		}, []string{"job_type"}),
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.enqueued, s.completed, s.failed, s.cancelled, s.duration,
	)
	if depth != nil {
		s.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting to be dequeued.",
		}, func() float64 { return float64(depth()) }))
	}
	return s
}

func (s *PrometheusMetricsService) RecordJobEnqueued(jobType queue.Type) {
	s.enqueued.WithLabelValues(string(jobType)).Inc()
}

func (s *PrometheusMetricsService) RecordJobCompleted(jobType queue.Type, duration float64) {
	s.completed.WithLabelValues(string(jobType)).Inc()
	s.duration.WithLabelValues(string(jobType)).Observe(duration)
}

func (s *PrometheusMetricsService) RecordJobFailed(jobType queue.Type, reason string) {
	s.failed.WithLabelValues(string(jobType), reason).Inc()
}

func (s *PrometheusMetricsService) RecordJobCancelled(jobType queue.Type) {
	s.cancelled.WithLabelValues(string(jobType)).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors
func (s *PrometheusMetricsService) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus exposition format
func (s *PrometheusMetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}
