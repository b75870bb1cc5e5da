package core

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects queue and worker counters on a private registry. All
// methods are nil-safe so the queue can run without metrics in tests.
type Metrics struct {
	registry      *prometheus.Registry
	jobsSubmitted prometheus.Counter
	jobsFinished  *prometheus.CounterVec
	pagesPrinted  prometheus.Counter
	queueDepth    prometheus.Gauge
	jobDuration   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printq_jobs_submitted_total",
			Help: "Total jobs accepted into the queue.",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printq_jobs_finished_total",
			Help: "Total jobs that reached a terminal status.",
		}, []string{"status"}),
		pagesPrinted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printq_pages_printed_total",
			Help: "Total pages printed across all jobs.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "printq_dispatch_queue_depth",
			Help: "Job IDs currently waiting for the print worker.",
		}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "printq_job_duration_seconds",
			Help:    "Time from print start to terminal status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
	}

	registry.MustRegister(
		m.jobsSubmitted,
		m.jobsFinished,
		m.pagesPrinted,
		m.queueDepth,
		m.jobDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) jobSubmitted() {
	if m == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

func (m *Metrics) jobFinished(status JobStatus) {
	if m == nil {
		return
	}
	m.jobsFinished.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) pagePrinted() {
	if m == nil {
		return
	}
	m.pagesPrinted.Inc()
}

func (m *Metrics) setQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) observeJobDuration(status JobStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(string(status)).Observe(d.Seconds())
}
