package ictus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal holds the Prometheus collectors for one process.
// Each instance owns its registry so tests can create as many as they like.
type StatsInternal struct {
	Registry    *prometheus.Registry
	Jobs        *prometheus.CounterVec   // kind, status
	JobDuration *prometheus.HistogramVec // kind
	InFlight    prometheus.Gauge
	WWW         *prometheus.CounterVec // code, method
	FetchTimer  prometheus.Histogram
}

func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()
	s := &StatsInternal{
		Registry: reg,
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ictus",
			Name:      "analyses_total",
			Help:      "Completed analyses by kind and result status.",
		}, []string{"kind", "status"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ictus",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of each analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"kind"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ictus",
			Name:      "analyses_in_flight",
			Help:      "Analyses submitted and not yet finished.",
		}),
		WWW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ictus",
			Name:      "http_requests_total",
			Help:      "API requests by response code and method.",
		}, []string{"code", "method"}),
		FetchTimer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ictus",
			Name:      "series_fetch_seconds",
			Help:      "Time spent fetching remote series.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		s.Jobs, s.JobDuration, s.InFlight, s.WWW, s.FetchTimer,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// RecJob counts one finished analysis and its duration.
func (s *StatsInternal) RecJob(kind, status string, seconds float64) {
	s.Jobs.WithLabelValues(kind, status).Inc()
	s.JobDuration.WithLabelValues(kind).Observe(seconds)
}

func (s *StatsInternal) JobStarted() { s.InFlight.Inc() }
func (s *StatsInternal) JobDone()    { s.InFlight.Dec() }

// RecWWW is called by the API stats middleware
func (s *StatsInternal) RecWWW(code, method string) {
	s.WWW.WithLabelValues(code, method).Inc()
}

func (s *StatsInternal) RecFetchTimer(seconds float64) {
	s.FetchTimer.Observe(seconds)
}

// Handler serves this registry on /metrics
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}
