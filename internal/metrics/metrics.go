package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Validations     *prometheus.CounterVec
	MusicChecks     *prometheus.CounterVec
	Submissions     *prometheus.CounterVec
	SubmitDuration  prometheus.Histogram
	ActiveSessions  prometheus.GaugeFunc
	ConnectAttempts *prometheus.CounterVec
}

// New registers all collectors. sessions reports the current session count.
func New(sessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg}

	m.Validations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tiktok_connector",
		Name:      "draft_validations_total",
		Help:      "Campaign draft validations by result.",
	}, []string{"result"})

	m.MusicChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tiktok_connector",
		Name:      "music_checks_total",
		Help:      "Music id checks by result.",
	}, []string{"result"})

	m.Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tiktok_connector",
		Name:      "ad_submissions_total",
		Help:      "Ad submissions by outcome.",
	}, []string{"outcome"})

	m.SubmitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tiktok_connector",
		Name:      "ad_submission_duration_seconds",
		Help:      "Time spent processing an ad submission.",
		Buckets:   prometheus.DefBuckets,
	})

	m.ConnectAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tiktok_connector",
		Name:      "connect_attempts_total",
		Help:      "Account connection attempts by result.",
	}, []string{"result"})

	if sessions == nil {
		sessions = func() int { return 0 }
	}
	m.ActiveSessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tiktok_connector",
		Name:      "sessions",
		Help:      "Sessions currently held in memory.",
	}, func() float64 { return float64(sessions()) })

	reg.MustRegister(m.Validations, m.MusicChecks, m.Submissions, m.SubmitDuration, m.ConnectAttempts, m.ActiveSessions)
	return m
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveSubmission records one submission outcome and its latency.
func (m *Metrics) ObserveSubmission(outcome string, started time.Time) {
	m.Submissions.WithLabelValues(outcome).Inc()
	m.SubmitDuration.Observe(time.Since(started).Seconds())
}
